package models

import "time"

// Account is the quota view of a user profile owned by the identity service.
// Galley only ever increments GenerationCount; IsSubscribed is read-only here.
type Account struct {
	UserID          string `gorm:"primaryKey;size:64"`
	Email           string `gorm:"size:255;index"`
	IsSubscribed    bool   `gorm:"default:false;index"`
	GenerationCount int    `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
