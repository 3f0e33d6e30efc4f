package models

// IntentKind is the classified purpose of a user message.
type IntentKind string

const (
	IntentSummarize IntentKind = "summarize"
	IntentQuiz      IntentKind = "quiz"
	IntentQA        IntentKind = "qa"
)

// Intent is the classifier output. NumQuestions is set for quiz intents only.
type Intent struct {
	Kind         IntentKind
	NumQuestions int
}
