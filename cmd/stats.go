package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessera-ai/tessera/internal/app"
	"github.com/tessera-ai/tessera/internal/chunk"
	"github.com/tessera-ai/tessera/internal/config"
	"github.com/tessera-ai/tessera/internal/log"
)

// newStatsCmd creates the stats command: chunk counts per content type.
func newStatsCmd(logger log.Logger) *cobra.Command {
	var tenantID string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show indexed chunk counts for a tenant",
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

			stats, err := a.Store.Stats(ctx, tenantID)
			if err != nil {
				return fmt.Errorf("reading stats: %w", err)
			}
			if len(stats) == 0 {
				fmt.Printf("No indexed content for tenant %s\n", tenantID)
				return nil
			}

			fmt.Print(formatStats(stats))
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant identifier (required)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

// formatStats renders per-type counts in stable order with a trailing total.
func formatStats(stats map[chunk.ContentType]int64) string {
	types := make([]chunk.ContentType, 0, len(stats))
	for ct := range stats {
		types = append(types, ct)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	var b strings.Builder
	var total int64
	for _, ct := range types {
		fmt.Fprintf(&b, "%-16s %d\n", ct, stats[ct])
		total += stats[ct]
	}
	fmt.Fprintf(&b, "%-16s %d\n", "total", total)
	return b.String()
}
