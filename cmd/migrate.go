package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessera-ai/tessera/db"
	"github.com/tessera-ai/tessera/internal/config"
	"github.com/tessera-ai/tessera/internal/log"
)

// newMigrateCmd creates the migrate command: apply schema migrations without
// starting the pipeline. Deployments run this before rolling new versions.
func newMigrateCmd(logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			if err := db.Migrate(cfg.PostgresURL()); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}
			logger.Info("migrations applied", "database", cfg.PostgresDBName)
			fmt.Println("Migrations applied.")
			return nil
		},
	}
}
