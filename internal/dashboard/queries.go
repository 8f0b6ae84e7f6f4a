// Package dashboard computes the reporting views over accounts and the
// generation log.
package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/zulandar/galley/internal/genlog"
	"github.com/zulandar/galley/internal/models"
	"gorm.io/gorm"
)

const (
	// chartYears is how many calendar years the usage chart covers.
	chartYears = 3
	// recentLimit bounds the recent sign-up and log lists.
	recentLimit = 5
)

// Subscription labels for sign-ups.
const (
	SubPaid = "Paid"
	SubFree = "Free"
)

// MonthUsage is one month of the usage chart with the same month of the
// year before.
type MonthUsage struct {
	Name     string `json:"name"`
	Current  int    `json:"current"`
	Previous int    `json:"previous"`
}

// Signup is a recently created account.
type Signup struct {
	Name string `json:"name"`
	Sub  string `json:"sub"`
	Date string `json:"date"`
}

// LogRow is a recent generation record for display.
type LogRow struct {
	Date        string   `json:"date"`
	Email       string   `json:"email"`
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
	Status      string   `json:"status"`
}

// Overview is the dashboard summary.
type Overview struct {
	TotalUsers          int64                   `json:"total_user"`
	ActiveSubscriptions int64                   `json:"active_subscription"`
	AIUsages            int64                   `json:"ai_usages"`
	Chart               map[string][]MonthUsage `json:"chart"`
	RecentSignups       []Signup                `json:"recent_signed_up"`
	RecentLogs          []LogRow                `json:"recent_ai_logs"`
}

// GetOverview builds the dashboard summary as of now. Chart months are
// bucketed in now's location.
func GetOverview(ctx context.Context, db *gorm.DB, now time.Time) (*Overview, error) {
	db = db.WithContext(ctx)
	log := genlog.New(db)
	var ov Overview

	if err := db.Model(&models.Account{}).Count(&ov.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("dashboard: count users: %w", err)
	}
	if err := db.Model(&models.Account{}).Where("is_subscribed = ?", true).
		Count(&ov.ActiveSubscriptions).Error; err != nil {
		return nil, fmt.Errorf("dashboard: count subscriptions: %w", err)
	}
	n, err := log.Count(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	ov.AIUsages = n

	chart, err := UsageChart(ctx, log, now)
	if err != nil {
		return nil, err
	}
	ov.Chart = chart

	signups, err := RecentSignups(ctx, db, recentLimit)
	if err != nil {
		return nil, err
	}
	ov.RecentSignups = signups

	recs, err := log.Recent(ctx, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	ov.RecentLogs = make([]LogRow, len(recs))
	for i, r := range recs {
		ov.RecentLogs[i] = toLogRow(r)
	}
	return &ov, nil
}

// UsageChart counts generation records per month for the current and the
// two prior years, each month paired with the same month one year
// earlier. Keys are four-digit years.
func UsageChart(ctx context.Context, log *genlog.Log, now time.Time) (map[string][]MonthUsage, error) {
	loc := now.Location()
	year := now.Year()
	// One extra year back feeds the oldest year's comparison.
	from := time.Date(year-chartYears, time.January, 1, 0, 0, 0, 0, loc)
	to := time.Date(year+1, time.January, 1, 0, 0, 0, 0, loc)

	stamps, err := log.Timestamps(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("dashboard: usage chart: %w", err)
	}

	type bucket struct {
		year  int
		month time.Month
	}
	counts := make(map[bucket]int)
	for _, ts := range stamps {
		ts = ts.In(loc)
		counts[bucket{ts.Year(), ts.Month()}]++
	}

	chart := make(map[string][]MonthUsage, chartYears)
	for y := year; y > year-chartYears; y-- {
		months := make([]MonthUsage, 12)
		for m := time.January; m <= time.December; m++ {
			months[m-1] = MonthUsage{
				Name:     m.String()[:3],
				Current:  counts[bucket{y, m}],
				Previous: counts[bucket{y - 1, m}],
			}
		}
		chart[strconv.Itoa(y)] = months
	}
	return chart, nil
}

// RecentSignups returns the newest accounts.
func RecentSignups(ctx context.Context, db *gorm.DB, limit int) ([]Signup, error) {
	var accts []models.Account
	if err := db.WithContext(ctx).Order("created_at DESC").Limit(limit).
		Find(&accts).Error; err != nil {
		return nil, fmt.Errorf("dashboard: recent signups: %w", err)
	}
	out := make([]Signup, len(accts))
	for i, a := range accts {
		sub := SubFree
		if a.IsSubscribed {
			sub = SubPaid
		}
		name := a.Email
		if name == "" {
			name = a.UserID
		}
		out[i] = Signup{Name: name, Sub: sub, Date: a.CreatedAt.Format("Jan 02, 2006")}
	}
	return out, nil
}

func toLogRow(r models.GenerationRecord) LogRow {
	row := LogRow{
		Date:        r.CreatedAt.Format("02/01/2006"),
		Title:       r.Title,
		Ingredients: genlog.Items(r.Ingredients),
		Status:      r.Outcome(),
	}
	if r.Email != nil {
		row.Email = *r.Email
	}
	if row.Ingredients == nil {
		row.Ingredients = []string{}
	}
	return row
}
