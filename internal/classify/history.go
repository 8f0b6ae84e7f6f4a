package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// HistoryLine is one prior turn as sent to the classifier.
type HistoryLine struct {
	Sender  string
	Content string
}

// noHistory is sent when a conversation has no prior turns.
const noHistory = "No history yet."

// FormatHistory renders history as "Sender: content" lines, oldest first.
func FormatHistory(history []HistoryLine) string {
	if len(history) == 0 {
		return noHistory
	}
	lines := make([]string, len(history))
	for i, h := range history {
		sender := h.Sender
		if sender == "" {
			sender = "unknown"
		}
		lines[i] = capitalize(sender) + ": " + h.Content
	}
	return strings.Join(lines, "\n")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
