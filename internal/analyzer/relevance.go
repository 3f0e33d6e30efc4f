package analyzer

import (
	"regexp"
	"sort"
	"strings"
)

const (
	maxRelevantSentences = 5
	minTokenLength       = 4
	minSentenceLength    = 21
	fallbackExcerpt      = 500
)

var sentenceBreak = regexp.MustCompile(`[.!?]+`)

type scoredSentence struct {
	text  string
	score int
}

// FindRelevant returns the sentences of corpus that share the most keywords
// with question. When nothing matches, the opening of the corpus is returned.
func FindRelevant(question, corpus string) string {
	var tokens []string
	for _, tok := range strings.Fields(strings.ToLower(question)) {
		if runeLen(tok) >= minTokenLength {
			tokens = append(tokens, tok)
		}
	}

	var scored []scoredSentence
	for _, fragment := range sentenceBreak.Split(corpus, -1) {
		sentence := strings.TrimSpace(fragment)
		if runeLen(sentence) < minSentenceLength {
			continue
		}
		lower := strings.ToLower(sentence)
		score := 0
		for _, tok := range tokens {
			if strings.Contains(lower, tok) {
				score++
			}
		}
		if score > 0 {
			scored = append(scored, scoredSentence{text: sentence, score: score})
		}
	}
	if len(scored) == 0 {
		return truncate(corpus, fallbackExcerpt)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > maxRelevantSentences {
		scored = scored[:maxRelevantSentences]
	}
	picked := make([]string, len(scored))
	for i, s := range scored {
		picked[i] = s.text
	}
	return strings.Join(picked, ". ") + "."
}
