package conversation

import (
	"encoding/json"
	"fmt"

	"github.com/zulandar/galley/internal/models"
	"gorm.io/datatypes"
)

// Text builds a plain-content message.
func Text(sender, kind, content string) models.ChatMessage {
	return models.ChatMessage{Sender: sender, Kind: kind, Content: &content}
}

// Payload builds a message whose body is v encoded as JSON.
func Payload(sender, kind string, v interface{}) (models.ChatMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("conversation: encode payload: %w", err)
	}
	return models.ChatMessage{Sender: sender, Kind: kind, Payload: datatypes.JSON(data)}, nil
}

func validateMessage(m *models.ChatMessage) error {
	switch m.Sender {
	case models.SenderUser, models.SenderAssistant:
	default:
		return fmt.Errorf("conversation: invalid sender %q", m.Sender)
	}
	switch m.Kind {
	case models.KindConversation, models.KindRecipe, models.KindError:
	default:
		return fmt.Errorf("conversation: invalid kind %q", m.Kind)
	}
	if (m.Content != nil) == m.HasPayload() {
		return fmt.Errorf("conversation: message must carry exactly one of content or payload")
	}
	return nil
}
