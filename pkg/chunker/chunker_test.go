package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentencesShortTextIsSingleChunk(t *testing.T) {
	require.Equal(t, []string{"Hello there. How are you?"}, Sentences("  Hello there. How are you?  ", 100))
}

func TestSentencesEmpty(t *testing.T) {
	assert.Nil(t, Sentences("   ", 10))
}

func TestSentencesDisabled(t *testing.T) {
	text := strings.Repeat("word ", 200)
	require.Len(t, Sentences(text, 0), 1)
}

func TestSentencesPacksWholeSentences(t *testing.T) {
	got := Sentences("One two. Three four! Five six? Seven.", 20)
	require.Equal(t, []string{"One two. Three four!", "Five six? Seven."}, got)
}

func TestSentencesSplitsLongSentenceAtWords(t *testing.T) {
	got := Sentences("alpha beta gamma delta epsilon", 12)
	require.Equal(t, []string{"alpha beta", "gamma delta", "epsilon"}, got)
}

func TestSentencesSplitsOversizedWord(t *testing.T) {
	got := Sentences("abcdefghij", 4)
	require.Equal(t, []string{"abcd", "efgh", "ij"}, got)
}

func TestSentencesRespectsLimitForUnicode(t *testing.T) {
	text := "Привет, как дела? Я получил ваше сообщение. Чем еще могу помочь?"
	for _, c := range Sentences(text, 25) {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 25, c)
	}
}

func TestSentencesDoesNotSplitDecimals(t *testing.T) {
	got := Sentences("Pi is 3.14 roughly. Done.", 19)
	require.Equal(t, []string{"Pi is 3.14 roughly.", "Done."}, got)
}
