package db

import (
	"fmt"
	"time"

	"github.com/zulandar/galley/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns every GORM model Galley owns, parents before children.
func AllModels() []interface{} {
	return []interface{}{
		&models.Account{},
		&models.ChatSession{},
		&models.ChatMessage{},
		&models.GenerationRecord{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// DropAll drops every Galley table, children first.
func DropAll(db *gorm.DB) error {
	all := AllModels()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("db: drop table: %w", err)
		}
	}
	return nil
}

// SeedAccount writes or updates the quota profile for a user. It exists for
// local setups without an identity service; the generation count of an
// existing row is left untouched.
func SeedAccount(db *gorm.DB, userID, email string, subscribed bool) error {
	if userID == "" {
		return fmt.Errorf("db: seed account: user id is required")
	}
	acct := models.Account{
		UserID:       userID,
		Email:        email,
		IsSubscribed: subscribed,
	}
	result := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"email":         email,
			"is_subscribed": subscribed,
			"updated_at":    time.Now(),
		}),
	}).Create(&acct)
	if result.Error != nil {
		return fmt.Errorf("db: seed account %q: %w", userID, result.Error)
	}
	return nil
}
