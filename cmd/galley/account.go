package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/galley/internal/db"
	"github.com/zulandar/galley/internal/quota"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Inspect and seed quota accounts",
	}

	cmd.AddCommand(newAccountShowCmd())
	cmd.AddCommand(newAccountSetCmd())
	return cmd
}

func newAccountShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user's quota standing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountShow(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Galley config file")
	return cmd
}

func runAccountShow(cmd *cobra.Command, configPath, userID string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	d, err := quota.New(gormDB, cfg.Quota.FreeGenerations).Check(cmd.Context(), userID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "User:        %s\n", userID)
	fmt.Fprintf(out, "Subscribed:  %t\n", d.Subscribed)
	fmt.Fprintf(out, "Generations: %d\n", d.Used)
	if d.Subscribed {
		fmt.Fprintln(out, "Remaining:   unlimited")
	} else {
		fmt.Fprintf(out, "Remaining:   %d of %d\n", d.Remaining, d.Limit)
	}
	fmt.Fprintf(out, "Status:      %s\n", d.Reason)
	return nil
}

func newAccountSetCmd() *cobra.Command {
	var (
		configPath string
		email      string
		subscribed bool
	)

	cmd := &cobra.Command{
		Use:   "set <user-id>",
		Short: "Create or update a user's quota account",
		Long:  "Writes the email and subscription flag for a user. An existing generation count is kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountSet(cmd, configPath, args[0], email, subscribed)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Galley config file")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&subscribed, "subscribed", false, "mark the account as a paid subscriber")
	return cmd
}

func runAccountSet(cmd *cobra.Command, configPath, userID, email string, subscribed bool) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if err := db.SeedAccount(gormDB, userID, email, subscribed); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Account %s saved (subscribed: %t)\n", userID, subscribed)
	return nil
}
