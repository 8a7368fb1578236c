package main

import (
	"github.com/aretw0/dockwise/internal/cli"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a conversation (the default command)",
	Long: `Starts the assistant. Type "exit" or "quit" to leave.

With --json every line read from stdin is an utterance ({"text": "..."})
and every line written to stdout is a JSON message.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	return cli.Chat(cmd.Context(), deps, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
