package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessera-ai/tessera/internal/app"
	"github.com/tessera-ai/tessera/internal/config"
	"github.com/tessera-ai/tessera/internal/log"
)

// newDeleteCmd creates the delete command: remove one source item's chunks.
func newDeleteCmd(logger log.Logger) *cobra.Command {
	var tenantID string

	cmd := &cobra.Command{
		Use:   "delete [source-id]",
		Short: "Remove all indexed chunks of one content item",
		Args:  cobra.ExactArgs(1),
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

			sourceID := args[0]
			if err := a.Indexer.DeleteContent(ctx, tenantID, sourceID); err != nil {
				return err
			}
			fmt.Printf("Deleted content %s for tenant %s\n", sourceID, tenantID)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant identifier (required)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
