// Package cmd implements the tessera command line interface.
//
// Design: following the pattern used by kubectl, hugo, and other standard
// Go CLI tools, all application logic lives here and main.go stays a
// minimal entry point.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tessera-ai/tessera/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "tessera",
	Short: "Tessera - multi-tenant content indexing and retrieval",
	Long: `Tessera indexes tenant content (documentation, CMS entries, forum
posts, products, Google Drive files) into a pgvector-backed store and
answers semantic queries over it.

Run "tessera index --tenant <id>" to build the index and
"tessera search --tenant <id> <query>" to query it.`,
	SilenceUsage: true,
}

// Execute is the main entry point for the tessera CLI.
func Execute() error {
	logger := initLogger()
	slog.SetDefault(logger)

	rootCmd.AddCommand(
		newIndexCmd(logger),
		newSearchCmd(logger),
		newDeleteCmd(logger),
		newStatsCmd(logger),
		newMigrateCmd(logger),
		newVersionCmd(),
	)

	return rootCmd.Execute()
}

// initLogger initializes the structured logger with appropriate log level.
//
// Log level is controlled by the DEBUG environment variable:
//   - DEBUG set (any value): debug level logging
//   - DEBUG not set: info level logging
func initLogger() log.Logger {
	cfg := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	return log.New(cfg)
}
