package main

import (
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/zulandar/galley/internal/alert"
	"github.com/zulandar/galley/internal/config"
)

func TestServeCmd_MissingAPIKey(t *testing.T) {
	path := writeConfig(t, "classifier:\n  api_key_env: GALLEY_TEST_UNSET_KEY\n")
	t.Setenv("GALLEY_TEST_UNSET_KEY", "")

	_, err := run(t, "", "serve", "-c", path)
	if err == nil {
		t.Fatal("expected error without an API key")
	}
	if !strings.Contains(err.Error(), "GALLEY_TEST_UNSET_KEY") {
		t.Errorf("error = %q, want it to name the env var", err.Error())
	}
}

func TestBuildNotifier(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	t.Run("log only", func(t *testing.T) {
		n, err := buildNotifier(config.AlertsConfig{}, logger)
		if err != nil {
			t.Fatalf("buildNotifier: %v", err)
		}
		if multi, ok := n.(alert.Multi); !ok || len(multi) != 1 {
			t.Errorf("notifier = %#v, want a single log notifier", n)
		}
	})

	t.Run("slack and discord", func(t *testing.T) {
		t.Setenv("GALLEY_TEST_SLACK", "xoxb-test")
		t.Setenv("GALLEY_TEST_DISCORD", "discord-test")
		cfg := config.AlertsConfig{
			Slack:   config.ChannelConfig{BotTokenEnv: "GALLEY_TEST_SLACK", ChannelID: "C1"},
			Discord: config.ChannelConfig{BotTokenEnv: "GALLEY_TEST_DISCORD", ChannelID: "42"},
		}
		n, err := buildNotifier(cfg, logger)
		if err != nil {
			t.Fatalf("buildNotifier: %v", err)
		}
		if multi, ok := n.(alert.Multi); !ok || len(multi) != 3 {
			t.Errorf("notifier = %#v, want log plus two channels", n)
		}
	})

	t.Run("token env empty", func(t *testing.T) {
		t.Setenv("GALLEY_TEST_SLACK", "")
		cfg := config.AlertsConfig{
			Slack: config.ChannelConfig{BotTokenEnv: "GALLEY_TEST_SLACK", ChannelID: "C1"},
		}
		if _, err := buildNotifier(cfg, logger); err == nil {
			t.Fatal("expected error for missing slack token")
		}
	})
}
