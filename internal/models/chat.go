package models

import (
	"time"

	"gorm.io/datatypes"
)

// Message senders.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Message kinds.
const (
	KindConversation = "conversation"
	KindRecipe       = "recipe"
	KindError        = "error"
)

// DefaultSessionTitle is used when a session is created without a title.
const DefaultSessionTitle = "New Chat"

// ChatSession is an append-only thread of messages owned by one user.
type ChatSession struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:64;not null;index:idx_user_updated"`
	Title     string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index:idx_user_updated"`

	Messages []ChatMessage `gorm:"foreignKey:SessionID"`
}

// ChatMessage is a single turn in a session. Exactly one of Content and
// Payload is set: Content for plain conversational turns, Payload for
// recipe and error turns and for conversation turns carrying an items list.
type ChatMessage struct {
	ID        uint           `gorm:"primaryKey;autoIncrement"`
	SessionID string         `gorm:"size:36;not null;uniqueIndex:idx_session_seq,priority:1"`
	Sequence  int            `gorm:"not null;uniqueIndex:idx_session_seq,priority:2"`
	Sender    string         `gorm:"size:16;not null"`
	Kind      string         `gorm:"size:16;not null;default:conversation"`
	Content   *string        `gorm:"type:text"`
	Payload   datatypes.JSON `gorm:"type:json"`
	CreatedAt time.Time

	Session *ChatSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// HasPayload reports whether the message carries a structured payload.
func (m *ChatMessage) HasPayload() bool {
	return len(m.Payload) > 0 && string(m.Payload) != "null"
}
