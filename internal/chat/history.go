package chat

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/zulandar/galley/internal/classify"
	"github.com/zulandar/galley/internal/models"
)

// MessageToHistoryLine projects a stored message into the line the
// classifier sees: its text, or its payload as compact JSON.
func MessageToHistoryLine(m models.ChatMessage) classify.HistoryLine {
	line := classify.HistoryLine{Sender: m.Sender}
	switch {
	case m.Content != nil:
		line.Content = *m.Content
	case m.HasPayload():
		var buf bytes.Buffer
		if err := json.Compact(&buf, m.Payload); err != nil {
			line.Content = string(m.Payload)
		} else {
			line.Content = buf.String()
		}
	}
	return line
}

// DeriveIngredientItems guesses bare ingredient names from descriptions by
// taking the last whitespace-delimited token, lower-cased. It is
// imprecise: "3 ripe bananas, mashed" yields "mashed". A blank description
// yields "", so the result is always as long as ingredients.
func DeriveIngredientItems(ingredients []string) []string {
	items := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		fields := strings.Fields(ing)
		if len(fields) == 0 {
			items = append(items, "")
			continue
		}
		items = append(items, strings.ToLower(fields[len(fields)-1]))
	}
	return items
}
