package analyzer

import (
	"regexp"
	"strconv"
	"strings"

	"campusassist/internal/models"
)

const (
	DefaultQuizQuestions = 5
	MinQuizQuestions     = 3
	MaxQuizQuestions     = 20
)

var (
	summarizeKeywords = []string{
		"summarize",
		"summary",
		"summarise",
		"summarize this",
		"give me a summary",
		"can you summarize",
	}
	quizKeywords = []string{
		"quiz",
		"practice",
		"test",
		"questions",
		"generate quiz",
		"create quiz",
		"make a quiz",
		"give me questions",
		"important questions",
	}
	questionCountPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:questions?|qns?|qs)`)
)

// ClassifyIntent maps a user message to summarize, quiz or qa. Summarize wins
// over quiz when both keyword sets match.
func ClassifyIntent(text string) models.Intent {
	lower := strings.ToLower(text)
	if containsAny(lower, summarizeKeywords) {
		return models.Intent{Kind: models.IntentSummarize}
	}
	if containsAny(lower, quizKeywords) {
		return models.Intent{Kind: models.IntentQuiz, NumQuestions: questionCount(text)}
	}
	return models.Intent{Kind: models.IntentQA}
}

func questionCount(text string) int {
	match := questionCountPattern.FindStringSubmatch(text)
	if match == nil {
		return DefaultQuizQuestions
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		// only digits matched, so the number overflowed
		return MaxQuizQuestions
	}
	return clamp(n, MinQuizQuestions, MaxQuizQuestions)
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
