// Package conversation owns chat sessions and their append-only message
// history.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/galley/internal/models"
	"gorm.io/gorm"
)

// ErrSessionNotFound is returned when a session does not exist or is not
// owned by the caller.
var ErrSessionNotFound = errors.New("conversation: session not found")

// StoreOpts holds optional parameters for NewStore.
type StoreOpts struct {
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Store persists sessions and messages. Writes to one session are
// serialized through Lock; the unique (session_id, sequence) index backs
// that up across processes.
type Store struct {
	db    *gorm.DB
	locks *keyedMutex
	now   func() time.Time
}

// NewStore creates a Store over db.
func NewStore(db *gorm.DB, opts StoreOpts) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, locks: newKeyedMutex(), now: now}
}

// DB returns the underlying handle so callers can open a transaction that
// spans the store and other writers.
func (s *Store) DB() *gorm.DB { return s.db }

// Lock acquires the per-session write lock and returns its release func.
// Take it before opening the transaction that appends.
func (s *Store) Lock(sessionID string) func() {
	return s.locks.lock(sessionID)
}

// SessionSummary is a session with its newest message for previews.
type SessionSummary struct {
	models.ChatSession
	LastMessage *models.ChatMessage
}

// Session returns the session with id if userID owns it.
func (s *Store) Session(ctx context.Context, id, userID string) (*models.ChatSession, error) {
	return sessionTx(s.db.WithContext(ctx), id, userID)
}

func sessionTx(tx *gorm.DB, id, userID string) (*models.ChatSession, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	var sess models.ChatSession
	err := tx.Where("id = ? AND user_id = ?", id, userID).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: load session %s: %w", id, err)
	}
	return &sess, nil
}

// GetOrCreateTx resolves id to a session owned by userID inside tx. With
// an empty id a new session is created under a fresh UUID, titled title
// or DefaultSessionTitle.
func (s *Store) GetOrCreateTx(tx *gorm.DB, id, userID, title string) (*models.ChatSession, error) {
	if userID == "" {
		return nil, fmt.Errorf("conversation: user id is required")
	}
	if id != "" {
		return sessionTx(tx, id, userID)
	}
	if title == "" {
		title = models.DefaultSessionTitle
	}
	now := s.now()
	sess := models.ChatSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.Create(&sess).Error; err != nil {
		return nil, fmt.Errorf("conversation: create session: %w", err)
	}
	return &sess, nil
}

// AppendTx appends msgs to the session in order, inside tx. Each message
// gets the next sequence number and a creation time no earlier than the
// session's last update, and the session's last-updated time is advanced.
// The caller must hold Lock(sessionID).
func (s *Store) AppendTx(tx *gorm.DB, sessionID string, msgs ...models.ChatMessage) ([]models.ChatMessage, error) {
	if len(msgs) == 0 {
		return nil, nil
	}
	for i := range msgs {
		if err := validateMessage(&msgs[i]); err != nil {
			return nil, err
		}
	}

	var sess models.ChatSession
	err := tx.Where("id = ?", sessionID).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: load session %s: %w", sessionID, err)
	}

	seq, err := nextSequence(tx, sessionID)
	if err != nil {
		return nil, err
	}

	ts := s.now()
	if ts.Before(sess.UpdatedAt) {
		ts = sess.UpdatedAt
	}

	out := make([]models.ChatMessage, len(msgs))
	for i, m := range msgs {
		m.ID = 0
		m.SessionID = sessionID
		m.Sequence = seq + i
		m.CreatedAt = ts
		m.Session = nil
		if err := tx.Create(&m).Error; err != nil {
			return nil, fmt.Errorf("conversation: append to %s: %w", sessionID, err)
		}
		out[i] = m
	}

	if err := tx.Model(&models.ChatSession{}).Where("id = ?", sessionID).
		UpdateColumn("updated_at", ts).Error; err != nil {
		return nil, fmt.Errorf("conversation: touch session %s: %w", sessionID, err)
	}
	return out, nil
}

// Append locks the session and appends msgs in their own transaction.
func (s *Store) Append(ctx context.Context, sessionID string, msgs ...models.ChatMessage) ([]models.ChatMessage, error) {
	unlock := s.Lock(sessionID)
	defer unlock()

	var out []models.ChatMessage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = s.AppendTx(tx, sessionID, msgs...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// nextSequence returns the next message sequence for a session.
func nextSequence(tx *gorm.DB, sessionID string) (int, error) {
	var max int
	err := tx.Model(&models.ChatMessage{}).
		Where("session_id = ?", sessionID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("conversation: next sequence for %s: %w", sessionID, err)
	}
	return max + 1, nil
}

// Messages returns a session's messages oldest first.
func (s *Store) Messages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).
		Order("created_at ASC, sequence ASC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("conversation: messages for %s: %w", sessionID, err)
	}
	return msgs, nil
}

// MessageCount returns the number of messages in a session.
func (s *Store) MessageCount(ctx context.Context, sessionID string) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("session_id = ?", sessionID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("conversation: count messages for %s: %w", sessionID, err)
	}
	return n, nil
}

// Sessions returns userID's sessions, most recently updated first, each
// with its newest message.
func (s *Store) Sessions(ctx context.Context, userID string) ([]SessionSummary, error) {
	db := s.db.WithContext(ctx)

	var sessions []models.ChatSession
	if err := db.Where("user_id = ?", userID).
		Order("updated_at DESC, created_at DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("conversation: sessions for %s: %w", userID, err)
	}
	if len(sessions) == 0 {
		return []SessionSummary{}, nil
	}

	ids := make([]string, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.ID
	}
	var last []models.ChatMessage
	if err := db.Where("session_id IN ?", ids).
		Where("sequence = (SELECT MAX(m2.sequence) FROM chat_messages m2 WHERE m2.session_id = chat_messages.session_id)").
		Find(&last).Error; err != nil {
		return nil, fmt.Errorf("conversation: last messages for %s: %w", userID, err)
	}
	bySession := make(map[string]*models.ChatMessage, len(last))
	for i := range last {
		bySession[last[i].SessionID] = &last[i]
	}

	out := make([]SessionSummary, len(sessions))
	for i, sess := range sessions {
		out[i] = SessionSummary{ChatSession: sess, LastMessage: bySession[sess.ID]}
	}
	return out, nil
}
