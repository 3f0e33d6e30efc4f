package analyzer

import (
	"regexp"
	"strings"
)

// DefaultSummaryLength is the summary budget in characters.
const DefaultSummaryLength = 800

const ellipsis = "..."

var (
	whitespaceRun   = regexp.MustCompile(`\s+`)
	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)
)

// Summarize shortens text to roughly maxLength characters by keeping the
// opening 40% and closing 20% of its sentences. A non-positive maxLength
// selects DefaultSummaryLength.
func Summarize(text string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultSummaryLength
	}
	cleaned := strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	if runeLen(cleaned) <= maxLength {
		return cleaned
	}

	matches := sentencePattern.FindAllString(cleaned, -1)
	sentences := make([]string, 0, len(matches))
	for _, m := range matches {
		sentences = append(sentences, strings.TrimSpace(m))
	}
	if len(sentences) <= 3 {
		return truncate(cleaned, maxLength)
	}

	head := ceilPercent(len(sentences), 40)
	tail := ceilPercent(len(sentences), 20)
	parts := make([]string, 0, head+tail+1)
	parts = append(parts, sentences[:head]...)
	parts = append(parts, ellipsis)
	parts = append(parts, sentences[len(sentences)-tail:]...)
	summary := strings.Join(parts, " ")
	if runeLen(summary) > maxLength {
		return truncate(summary, maxLength)
	}
	return summary
}

func ceilPercent(n, percent int) int {
	return (n*percent + 99) / 100
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes) + ellipsis
}

func runeLen(s string) int {
	return len([]rune(s))
}
