package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessera-ai/tessera/internal/app"
	"github.com/tessera-ai/tessera/internal/config"
	"github.com/tessera-ai/tessera/internal/log"
)

// newIndexCmd creates the index command: a full re-index of one tenant.
func newIndexCmd(logger log.Logger) *cobra.Command {
	var tenantID string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Re-index all content sources for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			ctx := cmd.Context()
			a, err := app.Setup(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("initializing application: %w", err)
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Warn("closing application", "error", err)
				}
			}()

			result, err := a.Indexer.IndexTenant(ctx, tenantID)
			if err != nil {
				return fmt.Errorf("indexing tenant %s: %w", tenantID, err)
			}

			fmt.Printf("Run %s: indexed %d items (%d chunks), %d items failed\n",
				result.RunID, result.Items, result.Chunks, result.FailedItems)
			if len(result.FailedSources) > 0 {
				fmt.Printf("Failed sources: %v\n", result.FailedSources)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant identifier (required)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
