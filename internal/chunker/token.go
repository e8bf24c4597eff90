package chunker

import (
	"strings"
	"unicode/utf8"
)

// longWord is the rune length past which a word likely splits into more
// than one subword token.
const longWord = 12

// EstimateTokens approximates a subword token count: four tokens per three
// words, rounded, plus one for each long word.
func EstimateTokens(text string) int {
	return estimate(countWords(text))
}

func estimate(words, long int) int {
	if words == 0 {
		return 0
	}
	return (words*4+1)/3 + long
}

func countWords(text string) (words, long int) {
	for _, w := range strings.Fields(text) {
		words++
		if utf8.RuneCountInString(w) > longWord {
			long++
		}
	}
	return words, long
}
