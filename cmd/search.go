package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessera-ai/tessera/internal/app"
	"github.com/tessera-ai/tessera/internal/chunk"
	"github.com/tessera-ai/tessera/internal/config"
	"github.com/tessera-ai/tessera/internal/log"
	"github.com/tessera-ai/tessera/internal/vecstore"
)

// newSearchCmd creates the search command.
func newSearchCmd(logger log.Logger) *cobra.Command {
	var (
		tenantID     string
		limit        int
		contentTypes []string
		tags         []string
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search indexed content for a tenant",
		Args:  cobra.MinimumNArgs(1),
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

			filter := vecstore.Filter{Tags: tags}
			for _, ct := range contentTypes {
				t := chunk.ContentType(ct)
				if !t.Valid() {
					return fmt.Errorf("unknown content type %q", ct)
				}
				filter.ContentTypes = append(filter.ContentTypes, t)
			}

			if limit <= 0 {
				limit = cfg.TopK
			}

			query := strings.Join(args, " ")
			results := a.Retriever.RetrieveRelevantContent(ctx, query, tenantID, filter, limit)
			if len(results) == 0 {
				fmt.Println("No results.")
				return nil
			}

			for i, r := range results {
				fmt.Printf("%d. [%.3f] %s (%s)\n", i+1, r.Score, r.Metadata.Title, r.Metadata.ContentType)
				if r.Metadata.URL != "" {
					fmt.Printf("   %s\n", r.Metadata.URL)
				}
				fmt.Printf("   %s\n", snippet(r.Content, 160))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant identifier (required)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results (default from config top_k)")
	cmd.Flags().StringSliceVar(&contentTypes, "type", nil, "restrict to content types (repeatable)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "restrict to tags (repeatable)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

// snippet truncates s to max characters on a rune boundary.
func snippet(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
