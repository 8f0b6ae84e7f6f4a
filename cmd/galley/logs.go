package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/galley/internal/genlog"
	"github.com/zulandar/galley/internal/models"
)

func newLogsCmd() *cobra.Command {
	var (
		configPath string
		opts       logsOpts
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List recipe generation records",
		Long:  "Displays generation records newest first. Supports filtering by time range, status and user, and JSON output.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(cmd, configPath, opts)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Galley config file")
	cmd.Flags().StringVar(&opts.from, "from", "", "only records at or after this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.to, "to", "", "only records before this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.status, "status", "", "filter by status (success or failed)")
	cmd.Flags().StringVar(&opts.user, "user", "", "filter by user ID")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", genlog.DefaultListLimit, "maximum number of records")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print records as JSON")
	return cmd
}

type logsOpts struct {
	from   string
	to     string
	status string
	user   string
	limit  int
	json   bool
}

// logEntry is the JSON shape printed by logs --json.
type logEntry struct {
	ID              uint     `json:"id"`
	UserID          string   `json:"user_id"`
	Email           string   `json:"email"`
	Title           string   `json:"title"`
	Status          string   `json:"status"`
	Rating          string   `json:"rating"`
	Ingredients     []string `json:"ingredients"`
	IngredientItems []string `json:"ingredient_items"`
	CreatedAt       string   `json:"created_at"`
}

func runLogs(cmd *cobra.Command, configPath string, opts logsOpts) error {
	q, err := buildLogsQuery(opts)
	if err != nil {
		return err
	}

	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	recs, err := genlog.New(gormDB).List(cmd.Context(), q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		return printLogsJSON(out, recs)
	}
	if len(recs) == 0 {
		fmt.Fprintln(out, "No generation records found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSTATUS\tUSER\tTITLE")
	for _, r := range recs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Outcome(), deref(r.UserID), truncate(r.Title, 50))
	}
	return w.Flush()
}

// buildLogsQuery translates flag values into a genlog query.
func buildLogsQuery(opts logsOpts) (genlog.Query, error) {
	q := genlog.Query{Limit: opts.limit, UserID: opts.user}

	var err error
	if q.From, err = parseTimeFlag("from", opts.from); err != nil {
		return q, err
	}
	if q.To, err = parseTimeFlag("to", opts.to); err != nil {
		return q, err
	}

	switch strings.ToLower(opts.status) {
	case "":
	case "success":
		q.Outcome = models.OutcomeSuccess
	case "failed":
		q.Outcome = models.OutcomeFailed
	default:
		return q, fmt.Errorf("--status must be success or failed, got %q", opts.status)
	}
	return q, nil
}

func parseTimeFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: want RFC3339 or YYYY-MM-DD, got %q", name, value)
	}
	return t, nil
}

func printLogsJSON(out io.Writer, recs []models.GenerationRecord) error {
	entries := make([]logEntry, 0, len(recs))
	for _, r := range recs {
		entries = append(entries, logEntry{
			ID:              r.ID,
			UserID:          deref(r.UserID),
			Email:           deref(r.Email),
			Title:           r.Title,
			Status:          r.Outcome(),
			Rating:          r.Rating,
			Ingredients:     genlog.Items(r.Ingredients),
			IngredientItems: genlog.Items(r.IngredientItems),
			CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
