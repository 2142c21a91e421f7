package chunker

import (
	"strings"
	"unicode/utf8"
)

// EstimateTokens gives a rough token count. English text averages about 1.33
// tokens per word; text without spaces (CJK, Thai) falls back to four
// characters per token.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if byChars := utf8.RuneCountInString(text) / 4; byChars > tokens {
		tokens = byChars
	}
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
