package genlog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/galley/internal/classify"
	"github.com/zulandar/galley/internal/db"
	"github.com/zulandar/galley/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

// insertAt writes a record with a fixed creation time.
func insertAt(t *testing.T, l *Log, title string, at time.Time) {
	t.Helper()
	rec := &models.GenerationRecord{Title: title, CreatedAt: at, UpdatedAt: at}
	if err := l.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record: %v", err)
	}
}

func TestFromRecipe(t *testing.T) {
	rec := FromRecipe("u1", "u1@example.com", &classify.Recipe{
		Title:           "Banana Bread",
		Overview:        "Sweet.",
		Ingredients:     []string{"3 bananas"},
		IngredientItems: []string{"bananas"},
		Instructions:    "Bake.",
	})
	if rec.UserID == nil || *rec.UserID != "u1" || rec.Email == nil || *rec.Email != "u1@example.com" {
		t.Errorf("identity = %v/%v", rec.UserID, rec.Email)
	}
	if rec.Rating != "N/A" {
		t.Errorf("Rating = %q, want N/A for empty rating", rec.Rating)
	}
	if got := Items(rec.Ingredients); len(got) != 1 || got[0] != "3 bananas" {
		t.Errorf("Ingredients = %v", got)
	}
	if rec.Outcome() != models.OutcomeSuccess {
		t.Errorf("Outcome() = %q, want Success", rec.Outcome())
	}
}

func TestFromRecipe_EmptyTitle(t *testing.T) {
	l := New(openTestDB(t))
	rec := FromRecipe("u1", "", &classify.Recipe{})
	if rec.Title != "Recipe" {
		t.Errorf("Title = %q, want %q", rec.Title, "Recipe")
	}
	if err := l.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.Outcome() != models.OutcomeSuccess {
		t.Errorf("Outcome() = %q, want Success", rec.Outcome())
	}
}

func TestFromInvalidRequest(t *testing.T) {
	rec := FromInvalidRequest("", "", &classify.InvalidRequest{
		Title:           "Contradiction",
		Overview:        "Beef is not vegan.",
		IngredientItems: []string{"beef"},
	})
	if rec.UserID != nil || rec.Email != nil {
		t.Error("empty identity should be stored as NULL")
	}
	if rec.Title != models.InvalidRequestTitle {
		t.Errorf("Title = %q, want canonical invalid title", rec.Title)
	}
	if rec.Outcome() != models.OutcomeFailed {
		t.Errorf("Outcome() = %q, want Failed", rec.Outcome())
	}
	if rec.Rating != "N/A" || rec.Instructions != "" {
		t.Errorf("Rating/Instructions = %q/%q", rec.Rating, rec.Instructions)
	}
	if string(rec.Ingredients) != "[]" {
		t.Errorf("Ingredients = %s, want []", rec.Ingredients)
	}
}

func TestRecord_RequiresTitle(t *testing.T) {
	l := New(openTestDB(t))
	err := l.Record(context.Background(), &models.GenerationRecord{})
	if err == nil || !strings.Contains(err.Error(), "title is required") {
		t.Errorf("err = %v, want title error", err)
	}
}

func TestList_FiltersAndOrder(t *testing.T) {
	l := New(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	insertAt(t, l, "Pancakes", base)
	insertAt(t, l, models.InvalidRequestTitle, base.Add(time.Hour))
	insertAt(t, l, "Omelette", base.Add(2*time.Hour))
	insertAt(t, l, "Soup", base.Add(48*time.Hour))

	all, err := l.List(ctx, Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 || all[0].Title != "Soup" || all[3].Title != "Pancakes" {
		t.Errorf("List() order = %v", titles(all))
	}

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{name: "failed", q: Query{Outcome: models.OutcomeFailed}, want: []string{models.InvalidRequestTitle}},
		{name: "success", q: Query{Outcome: models.OutcomeSuccess}, want: []string{"Soup", "Omelette", "Pancakes"}},
		{name: "range", q: Query{From: base.Add(30 * time.Minute), To: base.Add(24 * time.Hour)}, want: []string{"Omelette", models.InvalidRequestTitle}},
		{name: "limit", q: Query{Limit: 2}, want: []string{"Soup", "Omelette"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.List(ctx, tt.q)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if strings.Join(titles(got), ",") != strings.Join(tt.want, ",") {
				t.Errorf("titles = %v, want %v", titles(got), tt.want)
			}
		})
	}

	if _, err := l.List(ctx, Query{Outcome: "Maybe"}); err == nil {
		t.Error("expected error for unknown outcome")
	}
}

func TestList_ByUser(t *testing.T) {
	l := New(openTestDB(t))
	ctx := context.Background()
	for _, rec := range []*models.GenerationRecord{
		FromRecipe("alice", "", &classify.Recipe{Title: "A"}),
		FromRecipe("bob", "", &classify.Recipe{Title: "B"}),
	} {
		if err := l.Record(ctx, rec); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	got, err := l.List(ctx, Query{UserID: "bob"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Title != "B" {
		t.Errorf("titles = %v, want [B]", titles(got))
	}
}

func TestCountRecentTimestamps(t *testing.T) {
	l := New(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		insertAt(t, l, "R", base.AddDate(0, i, 0))
	}

	n, err := l.Count(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 7 {
		t.Errorf("Count = %d, want 7", n)
	}
	n, err = l.Count(ctx, base.AddDate(0, 2, 0), base.AddDate(0, 4, 0))
	if err != nil {
		t.Fatalf("Count range: %v", err)
	}
	if n != 2 {
		t.Errorf("Count range = %d, want 2", n)
	}

	recent, err := l.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 5 || !recent[0].CreatedAt.Equal(base.AddDate(0, 6, 0)) {
		t.Errorf("Recent = %d records, newest %v", len(recent), recent[0].CreatedAt)
	}

	ts, err := l.Timestamps(ctx, base, base.AddDate(0, 3, 0))
	if err != nil {
		t.Fatalf("Timestamps: %v", err)
	}
	if len(ts) != 3 || !ts[0].Equal(base) {
		t.Errorf("Timestamps = %v", ts)
	}
}

func TestItems(t *testing.T) {
	if got := Items(nil); got != nil {
		t.Errorf("Items(nil) = %v", got)
	}
	if got := Items([]byte("not json")); got != nil {
		t.Errorf("Items(bad) = %v", got)
	}
	if got := Items([]byte(`["a","b"]`)); len(got) != 2 {
		t.Errorf("Items = %v", got)
	}
}

func titles(recs []models.GenerationRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Title
	}
	return out
}
