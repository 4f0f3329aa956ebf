package tokenizer

import (
	"strings"
	"unicode"
)

// CountTokens estimates the BPE token count of text for usage logs and token
// metrics when a backend does not report counts. Words average ~4/3 tokens and
// each run of punctuation is counted as its own token.
func CountTokens(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	words := 0
	punct := 0
	inWord := false
	inPunct := false
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if !inWord {
				words++
			}
			inWord, inPunct = true, false
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			if !inPunct {
				punct++
			}
			inWord, inPunct = false, true
		default:
			inWord, inPunct = false, false
		}
	}

	return max(words*4/3+punct, 1)
}
