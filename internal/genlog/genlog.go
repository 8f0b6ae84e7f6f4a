// Package genlog is the append-only audit trail of recipe and error
// outcomes, and the read side reporting builds on.
package genlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zulandar/galley/internal/classify"
	"github.com/zulandar/galley/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 100

// noRating is recorded when an outcome has no rating label.
const noRating = "N/A"

// defaultRecipeTitle stands in for a recipe that came back without a title.
const defaultRecipeTitle = "Recipe"

// Log writes and queries generation records.
type Log struct {
	db *gorm.DB
}

// New creates a Log over db.
func New(db *gorm.DB) *Log {
	return &Log{db: db}
}

// Record appends one entry.
func (l *Log) Record(ctx context.Context, rec *models.GenerationRecord) error {
	if rec.Title == "" {
		return fmt.Errorf("genlog: record: title is required")
	}
	if err := l.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("genlog: record: %w", err)
	}
	return nil
}

// FromRecipe builds the entry for a generated recipe.
func FromRecipe(userID, email string, r *classify.Recipe) *models.GenerationRecord {
	rating := r.Rating
	if rating == "" {
		rating = noRating
	}
	title := r.Title
	if title == "" {
		title = defaultRecipeTitle
	}
	return &models.GenerationRecord{
		UserID:          optional(userID),
		Email:           optional(email),
		Title:           title,
		Overview:        r.Overview,
		Rating:          rating,
		Ingredients:     jsonList(r.Ingredients),
		IngredientItems: jsonList(r.IngredientItems),
		Instructions:    r.Instructions,
	}
}

// FromInvalidRequest builds the entry for a rejected request. The title is
// always the canonical invalid-request title so the record reads as Failed.
func FromInvalidRequest(userID, email string, e *classify.InvalidRequest) *models.GenerationRecord {
	return &models.GenerationRecord{
		UserID:          optional(userID),
		Email:           optional(email),
		Title:           models.InvalidRequestTitle,
		Overview:        e.Overview,
		Rating:          noRating,
		Ingredients:     jsonList(nil),
		IngredientItems: jsonList(e.IngredientItems),
	}
}

// Query filters List. Zero values mean unbounded.
type Query struct {
	From    time.Time
	To      time.Time
	Limit   int
	Outcome string // models.OutcomeSuccess, models.OutcomeFailed, or ""
	UserID  string
}

// List returns matching records, newest first.
func (l *Log) List(ctx context.Context, q Query) ([]models.GenerationRecord, error) {
	switch q.Outcome {
	case "", models.OutcomeSuccess, models.OutcomeFailed:
	default:
		return nil, fmt.Errorf("genlog: list: unknown outcome %q", q.Outcome)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	db := between(l.db.WithContext(ctx), q.From, q.To)
	switch q.Outcome {
	case models.OutcomeFailed:
		db = db.Where("title = ?", models.InvalidRequestTitle)
	case models.OutcomeSuccess:
		db = db.Where("title <> ?", models.InvalidRequestTitle)
	}
	if q.UserID != "" {
		db = db.Where("user_id = ?", q.UserID)
	}

	var recs []models.GenerationRecord
	if err := db.Order("created_at DESC, id DESC").Limit(limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("genlog: list: %w", err)
	}
	return recs, nil
}

// Count returns the number of records created in [from, to).
func (l *Log) Count(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	if err := between(l.db.WithContext(ctx).Model(&models.GenerationRecord{}), from, to).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("genlog: count: %w", err)
	}
	return n, nil
}

// Recent returns the n newest records.
func (l *Log) Recent(ctx context.Context, n int) ([]models.GenerationRecord, error) {
	return l.List(ctx, Query{Limit: n})
}

// Timestamps returns the creation times of records in [from, to), oldest
// first, for callers that bucket them.
func (l *Log) Timestamps(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	var ts []time.Time
	if err := between(l.db.WithContext(ctx).Model(&models.GenerationRecord{}), from, to).
		Order("created_at ASC").Pluck("created_at", &ts).Error; err != nil {
		return nil, fmt.Errorf("genlog: timestamps: %w", err)
	}
	return ts, nil
}

func between(db *gorm.DB, from, to time.Time) *gorm.DB {
	if !from.IsZero() {
		db = db.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		db = db.Where("created_at < ?", to)
	}
	return db
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func jsonList(items []string) datatypes.JSON {
	if items == nil {
		items = []string{}
	}
	data, _ := json.Marshal(items)
	return datatypes.JSON(data)
}

// Items decodes a JSON list column. Malformed data yields nil.
func Items(data datatypes.JSON) []string {
	var items []string
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	return items
}
