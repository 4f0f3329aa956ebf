package inference

import (
	"fmt"
	"strings"
)

// EmptyReplyFallback replaces a reply that is empty once the echoed prompt is removed.
const EmptyReplyFallback = "I received your message. How else can I help?"

// FallbackForError is the conversational payload sent with an internal error.
func FallbackForError(message string) string {
	return fmt.Sprintf("I received your message: '%s'. Please try again.", message)
}

// CleanReply removes the prompt echoed at the start of raw and trims the rest.
func CleanReply(raw, prompt string) string {
	text := strings.TrimSpace(strings.TrimPrefix(raw, prompt))
	if text == "" {
		return EmptyReplyFallback
	}
	return text
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
