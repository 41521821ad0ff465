package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// options holds command-line overrides. They take precedence over the config
// file and CHILL_ environment variables.
type options struct {
	configPath string
	dbPath     string
	audioDir   string
	logLevel   string
	ephemeral  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "chill",
		Short: "A supportive chat companion for the terminal",
		Long: `chill is a local, single-user support chat. Register or log in, then type
how you are feeling; every conversation is kept on this device.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML config file (default $CHILL_CONFIG)")
	flags.StringVar(&opts.dbPath, "db", "", "SQLite database path (default $CHILL_DB_PATH or chill.db)")
	flags.StringVar(&opts.audioDir, "audio-dir", "", "directory for voice notes (default $CHILL_AUDIO_DIR or chill-audio)")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	flags.BoolVar(&opts.ephemeral, "ephemeral", false, "keep everything in memory; nothing is written to disk")

	root.AddCommand(newWipeHistoryCmd(opts))
	return root
}

func newWipeHistoryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "wipe-history <identifier>",
		Short: "Delete every stored turn for an account",
		Long: `wipe-history removes the conversation history of one account. The account
itself is kept; its next login starts again from the welcome message.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWipeHistory(cmd, opts, args[0])
		},
	}
}
