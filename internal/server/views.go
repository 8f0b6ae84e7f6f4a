package server

import (
	"encoding/json"
	"time"

	"github.com/zulandar/galley/internal/conversation"
	"github.com/zulandar/galley/internal/genlog"
	"github.com/zulandar/galley/internal/models"
)

type messageView struct {
	ID          uint            `json:"id"`
	Sender      string          `json:"sender"`
	MessageType string          `json:"message_type"`
	Content     *string         `json:"content"`
	ExtraData   json.RawMessage `json:"extra_data"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toMessageView(m models.ChatMessage) messageView {
	v := messageView{
		ID:          m.ID,
		Sender:      m.Sender,
		MessageType: m.Kind,
		Content:     m.Content,
		CreatedAt:   m.CreatedAt,
	}
	if m.HasPayload() {
		v.ExtraData = json.RawMessage(m.Payload)
	}
	return v
}

type sessionView struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	LastMessage *messageView `json:"last_message"`
}

func toSessionView(s conversation.SessionSummary) sessionView {
	v := sessionView{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.LastMessage != nil {
		mv := toMessageView(*s.LastMessage)
		v.LastMessage = &mv
	}
	return v
}

type recordView struct {
	ID              uint      `json:"id"`
	Email           *string   `json:"email"`
	Title           string    `json:"title"`
	Overview        string    `json:"overview"`
	Rating          string    `json:"rating"`
	Ingredients     []string  `json:"ingredients"`
	IngredientItems []string  `json:"ingredient_items"`
	Instructions    string    `json:"instructions"`
	CreatedOn       time.Time `json:"created_on"`
	UpdatedOn       time.Time `json:"updated_on"`
	Status          string    `json:"status"`
}

func toRecordView(r models.GenerationRecord) recordView {
	return recordView{
		ID:              r.ID,
		Email:           r.Email,
		Title:           r.Title,
		Overview:        r.Overview,
		Rating:          r.Rating,
		Ingredients:     orEmpty(genlog.Items(r.Ingredients)),
		IngredientItems: orEmpty(genlog.Items(r.IngredientItems)),
		Instructions:    r.Instructions,
		CreatedOn:       r.CreatedAt,
		UpdatedOn:       r.UpdatedAt,
		Status:          r.Outcome(),
	}
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
