package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zulandar/galley/internal/alert"
	"github.com/zulandar/galley/internal/alert/discord"
	"github.com/zulandar/galley/internal/alert/slack"
	"github.com/zulandar/galley/internal/chat"
	"github.com/zulandar/galley/internal/classify"
	"github.com/zulandar/galley/internal/config"
	"github.com/zulandar/galley/internal/conversation"
	"github.com/zulandar/galley/internal/db"
	"github.com/zulandar/galley/internal/genlog"
	"github.com/zulandar/galley/internal/quota"
	"github.com/zulandar/galley/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat API server",
		Long:  "Migrates the database, connects the classifier and alert channels, and serves the chat API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Galley config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides server.port)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	classifier, err := classify.NewClient(classify.ClientOpts{
		APIKey:      cfg.Classifier.APIKey(),
		BaseURL:     cfg.Classifier.BaseURL,
		Model:       cfg.Classifier.Model,
		Temperature: cfg.Classifier.Temperature,
		Timeout:     cfg.Classifier.Timeout(),
	})
	if err != nil {
		return fmt.Errorf("classifier (set %s): %w", cfg.Classifier.APIKeyEnv, err)
	}

	alerts, err := buildNotifier(cfg.Alerts, logger)
	if err != nil {
		return err
	}

	store := conversation.NewStore(gormDB, conversation.StoreOpts{})
	gate := quota.New(gormDB, cfg.Quota.FreeGenerations)
	glog := genlog.New(gormDB)

	orch, err := chat.New(chat.Opts{
		Store:      store,
		Quota:      gate,
		Log:        glog,
		Classifier: classifier,
		Alerts:     alerts,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithFields(logrus.Fields{
		"driver": cfg.Database.Driver,
		"model":  cfg.Classifier.Model,
		"quota":  gate.Ceiling(),
	}).Info("starting galley")

	err = server.Start(ctx, server.StartOpts{
		Deps: server.Deps{
			Chat:        orch,
			Store:       store,
			Quota:       gate,
			Log:         glog,
			DB:          gormDB,
			Logger:      logger,
			UserHeader:  cfg.Server.UserHeader,
			EmailHeader: cfg.Server.EmailHeader,
		},
		Port: port,
		Out:  cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Shut down cleanly")
	return nil
}

// buildNotifier fans alerts out to the log plus every configured channel.
func buildNotifier(cfg config.AlertsConfig, logger logrus.FieldLogger) (alert.Notifier, error) {
	notifiers := alert.Multi{alert.NewLogNotifier(logger)}

	if cfg.Slack.Enabled() {
		n, err := slack.New(slack.Opts{
			BotToken:  cfg.Slack.BotToken(),
			ChannelID: cfg.Slack.ChannelID,
		})
		if err != nil {
			return nil, fmt.Errorf("alerts: %w", err)
		}
		notifiers = append(notifiers, n)
	}
	if cfg.Discord.Enabled() {
		n, err := discord.New(discord.Opts{
			BotToken:  cfg.Discord.BotToken(),
			ChannelID: cfg.Discord.ChannelID,
		})
		if err != nil {
			return nil, fmt.Errorf("alerts: %w", err)
		}
		notifiers = append(notifiers, n)
	}
	return notifiers, nil
}
