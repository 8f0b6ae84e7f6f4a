package models

import (
	"time"

	"gorm.io/datatypes"
)

// InvalidRequestTitle marks a generation record as a failed attempt.
const InvalidRequestTitle = "Recipe Request Invalid"

// Generation record outcomes.
const (
	OutcomeSuccess = "Success"
	OutcomeFailed  = "Failed"
)

// GenerationRecord is the append-only audit entry written for every recipe
// or error outcome. It is linked to chat messages by content only.
type GenerationRecord struct {
	ID              uint           `gorm:"primaryKey;autoIncrement"`
	UserID          *string        `gorm:"size:64;index"`
	Email           *string        `gorm:"size:255"`
	Title           string         `gorm:"size:255;not null"`
	Overview        string         `gorm:"type:text"`
	Rating          string         `gorm:"size:16"`
	Ingredients     datatypes.JSON `gorm:"type:json"`
	IngredientItems datatypes.JSON `gorm:"type:json"`
	Instructions    string         `gorm:"type:text"`
	CreatedAt       time.Time      `gorm:"index"`
	UpdatedAt       time.Time
}

// Outcome derives Success or Failed from the title.
func (r *GenerationRecord) Outcome() string {
	if r.Title == InvalidRequestTitle {
		return OutcomeFailed
	}
	return OutcomeSuccess
}
