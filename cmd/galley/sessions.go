package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/galley/internal/chat"
	"github.com/zulandar/galley/internal/conversation"
	"github.com/zulandar/galley/internal/models"
)

func newSessionsCmd() *cobra.Command {
	var (
		configPath string
		chatID     string
	)

	cmd := &cobra.Command{
		Use:   "sessions <user-id>",
		Short: "List a user's chat sessions",
		Long:  "Lists a user's chats, most recently updated first. With --chat, prints the messages of one chat in order.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if chatID != "" {
				return runSessionMessages(cmd, configPath, args[0], chatID)
			}
			return runSessions(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Galley config file")
	cmd.Flags().StringVar(&chatID, "chat", "", "print the messages of this chat")
	return cmd
}

func runSessions(cmd *cobra.Command, configPath, userID string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	summaries, err := conversation.NewStore(gormDB, conversation.StoreOpts{}).Sessions(cmd.Context(), userID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintf(out, "No chats found for %s.\n", userID)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHAT\tUPDATED\tTITLE\tLAST MESSAGE")
	for _, s := range summaries {
		last := "-"
		if s.LastMessage != nil {
			last = truncate(preview(*s.LastMessage), 60)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.UpdatedAt.Format("2006-01-02 15:04"), truncate(s.Title, 30), last)
	}
	return w.Flush()
}

func runSessionMessages(cmd *cobra.Command, configPath, userID, chatID string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	store := conversation.NewStore(gormDB, conversation.StoreOpts{})
	sess, err := store.Session(cmd.Context(), chatID, userID)
	if err != nil {
		return err
	}
	msgs, err := store.Messages(cmd.Context(), sess.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Chat %s: %s (%d messages)\n\n", sess.ID, sess.Title, len(msgs))
	for _, m := range msgs {
		fmt.Fprintf(out, "[%d] %s %s (%s)\n", m.Sequence, m.CreatedAt.Format("2006-01-02 15:04:05"), m.Sender, m.Kind)
		fmt.Fprintf(out, "    %s\n", preview(m))
	}
	return nil
}

// preview renders a message the way the classifier history sees it.
func preview(m models.ChatMessage) string {
	return chat.MessageToHistoryLine(m).Content
}
