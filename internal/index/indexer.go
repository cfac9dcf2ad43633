// Package index orchestrates the ingestion pipeline: fetch records from
// content sources, chunk them, embed the chunks, and replace the stored
// vectors for each source item.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tessera-ai/tessera/internal/chunk"
	"github.com/tessera-ai/tessera/internal/source"
)

// VectorStore is the persistence surface the indexer needs. Tenant scoping
// rides on each chunk's metadata for writes and is explicit for deletes.
type VectorStore interface {
	Upsert(ctx context.Context, chunks []chunk.ContentChunk) error
	DeleteBySource(ctx context.Context, sourceID, tenantID string) error
}

// Embedder produces one vector per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Connector yields the records of one content source for a tenant.
type Connector interface {
	Type() chunk.ContentType
	Fetch(ctx context.Context, tenantID string) ([]source.Record, error)
}

// Indexer runs the chunk-embed-store pipeline. Construct with New.
type Indexer struct {
	store      VectorStore
	embedder   Embedder
	chunker    *chunk.Chunker
	connectors []Connector
	logger     *slog.Logger
	tracer     trace.Tracer
}

// New creates an Indexer over the given connectors.
func New(store VectorStore, embedder Embedder, chunker *chunk.Chunker, connectors []Connector, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		store:      store,
		embedder:   embedder,
		chunker:    chunker,
		connectors: connectors,
		logger:     logger,
		tracer:     otel.Tracer("tessera/index"),
	}
}

// Result summarizes one tenant indexing run.
type Result struct {
	RunID         string
	Items         int
	Chunks        int
	FailedItems   int
	FailedSources []string
}

// IndexTenant re-indexes every connector's content for the tenant. Each
// connector runs in its own goroutine; a failing connector is logged and
// reported in the result but does not stop the others.
func (ix *Indexer) IndexTenant(ctx context.Context, tenantID string) (*Result, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant id is required")
	}

	runID := uuid.NewString()
	ctx, span := ix.tracer.Start(ctx, "index.tenant",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("run.id", runID),
		))
	defer span.End()

	logger := ix.logger.With("run_id", runID, "tenant_id", tenantID)
	logger.Info("indexing run started", "connectors", len(ix.connectors))

	var (
		mu     sync.Mutex
		result = Result{RunID: runID}
		wg     sync.WaitGroup
	)

	for _, conn := range ix.connectors {
		wg.Add(1)
		go func(conn Connector) {
			defer wg.Done()

			items, chunks, failed, err := ix.runPipeline(ctx, logger, conn, tenantID)

			mu.Lock()
			defer mu.Unlock()
			result.Items += items
			result.Chunks += chunks
			result.FailedItems += failed
			if err != nil {
				result.FailedSources = append(result.FailedSources, string(conn.Type()))
			}
		}(conn)
	}
	wg.Wait()

	span.SetAttributes(
		attribute.Int("index.items", result.Items),
		attribute.Int("index.chunks", result.Chunks),
		attribute.Int("index.failed_items", result.FailedItems),
	)
	logger.Info("indexing run finished",
		"items", result.Items,
		"chunks", result.Chunks,
		"failed_items", result.FailedItems,
		"failed_sources", result.FailedSources)
	return &result, nil
}

// runPipeline fetches one connector's records and indexes them sequentially.
// Per-item failures are counted but do not abort the remaining items.
func (ix *Indexer) runPipeline(ctx context.Context, logger *slog.Logger, conn Connector, tenantID string) (items, chunks, failed int, err error) {
	contentType := conn.Type()
	logger = logger.With("content_type", contentType)

	records, err := conn.Fetch(ctx, tenantID)
	if err != nil {
		logger.Error("source fetch failed", "error", err)
		return 0, 0, 0, err
	}

	for _, rec := range records {
		n, err := ix.IndexItem(ctx, rec)
		if err != nil {
			logger.Warn("item indexing failed", "source_id", rec.SourceID, "error", err)
			failed++
			continue
		}
		items++
		chunks += n
	}

	logger.Info("source pipeline finished", "records", len(records), "indexed", items, "failed", failed)
	return items, chunks, failed, nil
}

// IndexItem replaces the stored chunks for one source item. Existing chunks
// are deleted first so removed or shrunk content leaves nothing stale behind.
// A record that normalizes to zero chunks is a clean removal, not an error.
func (ix *Indexer) IndexItem(ctx context.Context, rec source.Record) (int, error) {
	if rec.TenantID == "" || rec.SourceID == "" {
		return 0, fmt.Errorf("record needs tenant id and source id")
	}

	ctx, span := ix.tracer.Start(ctx, "index.item",
		trace.WithAttributes(
			attribute.String("tenant.id", rec.TenantID),
			attribute.String("source.id", rec.SourceID),
		))
	defer span.End()

	// Delete first: if this fails we must not insert, or a later partial
	// write could leave both old and new chunks in the store.
	if err := ix.store.DeleteBySource(ctx, rec.SourceID, rec.TenantID); err != nil {
		return 0, fmt.Errorf("deleting stale chunks for %s: %w", rec.SourceID, err)
	}

	chunks := ix.chunker.Chunk(rec.Content, rec.Metadata())
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = embeddingText(c)
	}

	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %d chunks for %s: %w", len(chunks), rec.SourceID, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding %s: got %d vectors for %d chunks", rec.SourceID, len(vectors), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	if err := ix.store.Upsert(ctx, chunks); err != nil {
		return 0, fmt.Errorf("storing chunks for %s: %w", rec.SourceID, err)
	}

	span.SetAttributes(attribute.Int("index.chunks", len(chunks)))
	return len(chunks), nil
}

// DeleteContent removes everything stored for one source item.
func (ix *Indexer) DeleteContent(ctx context.Context, tenantID, sourceID string) error {
	if err := ix.store.DeleteBySource(ctx, sourceID, tenantID); err != nil {
		return fmt.Errorf("deleting content %s: %w", sourceID, err)
	}
	ix.logger.Info("content deleted", "tenant_id", tenantID, "source_id", sourceID)
	return nil
}

// embeddingText prefixes the chunk with its title so the vector carries the
// document context even for mid-document chunks.
func embeddingText(c chunk.ContentChunk) string {
	if c.Metadata.Title == "" {
		return c.Content
	}
	return c.Metadata.Title + "\n\n" + c.Content
}
