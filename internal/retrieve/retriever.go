// Package retrieve answers semantic queries over the indexed content.
//
// Retrieval is best-effort: a failing embedding service or vector store
// degrades to an empty result set with a warning, never an error, because
// the callers render pages and answers that must survive without context.
package retrieve

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tessera-ai/tessera/internal/vecstore"
)

// DefaultLimit is the result count when the caller does not specify one.
const DefaultLimit = 5

// PageContextLimit caps related-content lookups for a page.
const PageContextLimit = 3

// Searcher is the store surface the retriever needs.
type Searcher interface {
	Search(ctx context.Context, queryVec []float32, tenantID string, f vecstore.Filter, limit int) ([]vecstore.SearchResult, error)
}

// Embedder turns one query string into a vector.
type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Retriever runs similarity searches with a relevance floor. Construct
// with New.
type Retriever struct {
	store     Searcher
	embedder  Embedder
	threshold float64
	logger    *slog.Logger
	tracer    trace.Tracer
}

// New creates a Retriever. threshold is the minimum similarity score a hit
// must reach to be returned; 0 disables the floor.
func New(store Searcher, embedder Embedder, threshold float64, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		store:     store,
		embedder:  embedder,
		threshold: threshold,
		logger:    logger,
		tracer:    otel.Tracer("tessera/retrieve"),
	}
}

// RetrieveRelevantContent returns up to limit chunks relevant to query for
// the tenant, most similar first. Hits below the similarity threshold are
// dropped. Failures are logged and yield an empty, non-nil slice.
func (r *Retriever) RetrieveRelevantContent(ctx context.Context, query, tenantID string, f vecstore.Filter, limit int) []vecstore.SearchResult {
	if limit <= 0 {
		limit = DefaultLimit
	}

	ctx, span := r.tracer.Start(ctx, "retrieve.relevant",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.Int("retrieve.limit", limit),
		))
	defer span.End()

	if query == "" || tenantID == "" {
		return []vecstore.SearchResult{}
	}

	vec, err := r.embedder.EmbedOne(ctx, query)
	if err != nil {
		r.logger.Warn("retrieval degraded: query embedding failed",
			"tenant_id", tenantID, "error", err)
		return []vecstore.SearchResult{}
	}

	hits, err := r.store.Search(ctx, vec, tenantID, f, limit)
	if err != nil {
		r.logger.Warn("retrieval degraded: search failed",
			"tenant_id", tenantID, "error", err)
		return []vecstore.SearchResult{}
	}

	results := make([]vecstore.SearchResult, 0, len(hits))
	for _, h := range hits {
		if h.Score < r.threshold {
			continue
		}
		results = append(results, h)
	}

	span.SetAttributes(attribute.Int("retrieve.results", len(results)))
	r.logger.Debug("retrieved content",
		"tenant_id", tenantID, "hits", len(hits), "returned", len(results))
	return results
}

// RetrieveContextForPage returns content related to the page at pageURL.
// When query is empty a pseudo-query built from the URL stands in for it.
// The page itself is excluded from the results so a page never cites itself.
func (r *Retriever) RetrieveContextForPage(ctx context.Context, pageURL, tenantID, query string) []vecstore.SearchResult {
	if query == "" {
		query = "Related content for " + pageURL
	}

	// Fetch one extra so dropping the page itself still fills the limit.
	hits := r.RetrieveRelevantContent(ctx, query, tenantID, vecstore.Filter{}, PageContextLimit+1)

	results := make([]vecstore.SearchResult, 0, PageContextLimit)
	for _, h := range hits {
		if pageURL != "" && h.Metadata.URL == pageURL {
			continue
		}
		results = append(results, h)
		if len(results) == PageContextLimit {
			break
		}
	}
	return results
}
