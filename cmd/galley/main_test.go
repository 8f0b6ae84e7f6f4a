package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zulandar/galley/internal/config"
	"github.com/zulandar/galley/internal/db"
	"gorm.io/gorm"
)

// run executes the root command with args and returns its combined output.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeConfig writes a sqlite config into a temp dir and returns its path.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "galley.yaml")
	body := "database:\n  driver: sqlite\n  path: " + filepath.Join(dir, "galley.db") + "\n" + extra
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// openConfigDB opens the database a config file points at.
func openConfigDB(t *testing.T, path string) *gorm.DB {
	t.Helper()
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return gormDB
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out, "galley dev") {
		t.Errorf("expected output to contain 'galley dev', got: %s", out)
	}
	if !strings.Contains(out, "commit: none") {
		t.Errorf("expected output to contain 'commit: none', got: %s", out)
	}
}

func TestVersionCmdWithCustomValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = "1.0.0", "abc123", "2026-01-01"
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	out, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	for _, want := range []string{"galley 1.0.0", "commit: abc123", "built: 2026-01-01"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got: %s", want, out)
		}
	}
}

func TestRootCmdHelp(t *testing.T) {
	out, err := run(t, "", "--help")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	for _, sub := range []string{"serve", "db", "logs", "sessions", "account", "version"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help to list %q, got: %s", sub, out)
		}
	}
}

func TestSubcommandHelp_DefaultConfig(t *testing.T) {
	for _, args := range [][]string{
		{"serve", "--help"},
		{"db", "init", "--help"},
		{"db", "reset", "--help"},
		{"logs", "--help"},
		{"sessions", "--help"},
		{"account", "show", "--help"},
		{"account", "set", "--help"},
	} {
		t.Run(strings.Join(args[:len(args)-1], " "), func(t *testing.T) {
			out, err := run(t, "", args...)
			if err != nil {
				t.Fatalf("%v failed: %v", args, err)
			}
			if !strings.Contains(out, "--config") || !strings.Contains(out, "galley.yaml") {
				t.Errorf("expected help to mention --config default galley.yaml, got: %s", out)
			}
		})
	}
}

func TestMissingConfig(t *testing.T) {
	_, err := run(t, "", "logs", "--config", "/nonexistent/galley.yaml")
	if err == nil {
		t.Fatal("expected error for missing config")
	}
	if !strings.Contains(err.Error(), "load config") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "load config")
	}
}

func TestNewLogger(t *testing.T) {
	buf := new(bytes.Buffer)
	logger, err := newLogger(config.LogConfig{Level: "warn", Format: "json"}, buf)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Info("hidden")
	logger.WithField("user_id", "u1").Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"user_id":"u1"`) {
		t.Errorf("expected JSON field in output, got: %s", out)
	}

	if _, err := newLogger(config.LogConfig{Level: "loud", Format: "text"}, buf); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"Classic Banana Bread", 10, "Classic..."},
		{"crème brûlée", 8, "crème..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
