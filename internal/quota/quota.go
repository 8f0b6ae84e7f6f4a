// Package quota enforces the free-tier generation ceiling.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/galley/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultCeiling is the number of free recipe generations per user.
const DefaultCeiling = 3

// ErrQuotaExceeded is returned by Commit when the conditional increment
// matched no row.
var ErrQuotaExceeded = errors.New("quota: free generation limit reached")

// Reason explains a Decision.
type Reason string

const (
	ReasonSubscribed   Reason = "subscribed"
	ReasonFreeTier     Reason = "free_tier"
	ReasonLimitReached Reason = "limit_reached"
)

// Unlimited is reported as Remaining for subscribed users.
const Unlimited = -1

// Decision is the result of a quota check.
type Decision struct {
	Allowed    bool   `json:"allowed"`
	Reason     Reason `json:"reason"`
	Subscribed bool   `json:"is_subscribed"`
	Used       int    `json:"generation_count"`
	Limit      int    `json:"limit"`
	Remaining  int    `json:"remaining"`
}

// Gate reads and updates per-user usage counters.
type Gate struct {
	db      *gorm.DB
	ceiling int
}

// New creates a Gate. A negative ceiling selects DefaultCeiling.
func New(db *gorm.DB, ceiling int) *Gate {
	if ceiling < 0 {
		ceiling = DefaultCeiling
	}
	return &Gate{db: db, ceiling: ceiling}
}

// Ceiling returns the free-tier limit.
func (g *Gate) Ceiling() int { return g.ceiling }

// Ensure creates an unpaid, zero-count profile the first time userID is
// seen. An existing row is returned unchanged.
func (g *Gate) Ensure(ctx context.Context, userID, email string) (*models.Account, error) {
	if userID == "" {
		return nil, fmt.Errorf("quota: ensure: user id is required")
	}
	db := g.db.WithContext(ctx)
	acct := models.Account{UserID: userID, Email: email}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&acct).Error; err != nil {
		return nil, fmt.Errorf("quota: ensure %q: %w", userID, err)
	}
	var got models.Account
	if err := db.Where("user_id = ?", userID).First(&got).Error; err != nil {
		return nil, fmt.Errorf("quota: ensure %q: %w", userID, err)
	}
	return &got, nil
}

// Check reports whether userID may start a new generation. A user without
// a profile row is treated as unpaid with nothing used.
func (g *Gate) Check(ctx context.Context, userID string) (Decision, error) {
	var acct models.Account
	err := g.db.WithContext(ctx).Where("user_id = ?", userID).First(&acct).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return Decision{}, fmt.Errorf("quota: check %q: %w", userID, err)
	}
	return g.decide(acct), nil
}

func (g *Gate) decide(acct models.Account) Decision {
	d := Decision{
		Subscribed: acct.IsSubscribed,
		Used:       acct.GenerationCount,
		Limit:      g.ceiling,
	}
	switch {
	case acct.IsSubscribed:
		d.Allowed = true
		d.Reason = ReasonSubscribed
		d.Remaining = Unlimited
	case acct.GenerationCount < g.ceiling:
		d.Allowed = true
		d.Reason = ReasonFreeTier
		d.Remaining = g.ceiling - acct.GenerationCount
	default:
		d.Reason = ReasonLimitReached
	}
	return d
}

// Commit consumes one generation for userID inside tx. The increment is
// conditional on the user still being within quota, so concurrent commits
// can never push an unpaid user past the ceiling.
func (g *Gate) Commit(ctx context.Context, tx *gorm.DB, userID string) error {
	if tx == nil {
		tx = g.db
	}
	result := tx.WithContext(ctx).Model(&models.Account{}).
		Where("user_id = ? AND (is_subscribed = ? OR generation_count < ?)", userID, true, g.ceiling).
		Updates(map[string]interface{}{
			"generation_count": gorm.Expr("generation_count + ?", 1),
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("quota: commit %q: %w", userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrQuotaExceeded
	}
	return nil
}

// Release gives back a reservation. Nothing is reserved ahead of Commit,
// so it leaves the stored counter alone.
func (g *Gate) Release(userID string) {}
