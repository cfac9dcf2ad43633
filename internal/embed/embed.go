// Package embed converts batches of text into fixed-dimension vectors via
// a Genkit embedder. It is the single embedding path for both indexing and
// retrieval, so every vector in the store shares one model and dimension.
package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/firebase/genkit/go/ai"
)

// ErrEmbeddingService indicates the upstream embedding call failed or
// returned malformed output (wrong count, wrong dimension). Callers must
// not substitute zero vectors; chunks that fail to embed are not indexed.
var ErrEmbeddingService = errors.New("embedding service error")

// maxAttempts bounds retries for transient upstream failures.
const maxAttempts = 3

// Generator wraps an ai.Embedder with batch semantics, bounded retry, and
// dimension validation. It is safe for concurrent use.
type Generator struct {
	embedder  ai.Embedder
	dimension int
	logger    *slog.Logger

	// backoffBase scales retry delays; tests shrink it.
	backoffBase time.Duration
}

// New creates a Generator. dimension is the deployment's fixed vector
// dimension; every returned vector is validated against it.
func New(embedder ai.Embedder, dimension int, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		embedder:    embedder,
		dimension:   dimension,
		logger:      logger,
		backoffBase: time.Second,
	}
}

// Dimension returns the configured vector dimension.
func (g *Generator) Dimension() int {
	return g.dimension
}

// Embed converts texts into vectors, order-preserving, one vector per input.
// The whole batch goes upstream in a single request. Transient failures are
// retried with exponential backoff up to maxAttempts; a malformed response
// (count or dimension mismatch) fails immediately with ErrEmbeddingService.
func (g *Generator) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	docs := make([]*ai.Document, len(texts))
	for i, text := range texts {
		docs[i] = ai.DocumentFromText(text, nil)
	}

	resp, err := g.embedWithRetry(ctx, &ai.EmbedRequest{Input: docs})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingService, err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs",
			ErrEmbeddingService, len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Embedding) == 0 {
			return nil, fmt.Errorf("%w: empty embedding at index %d", ErrEmbeddingService, i)
		}
		if len(emb.Embedding) != g.dimension {
			return nil, fmt.Errorf("%w: embedding at index %d has dimension %d, want %d",
				ErrEmbeddingService, i, len(emb.Embedding), g.dimension)
		}
		vectors[i] = emb.Embedding
	}

	return vectors, nil
}

// EmbedOne embeds a single text via a one-element batch.
func (g *Generator) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// embedWithRetry calls the upstream embedder with exponential backoff and
// jitter. Context cancellation stops retrying immediately.
func (g *Generator) embedWithRetry(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			base := time.Duration(attempt*attempt) * g.backoffBase
			jitter := time.Duration(rand.Int64N(int64(base/2 + 1)))
			backoff := base + jitter
			g.logger.Warn("retrying embedding request",
				"attempt", attempt+1, "backoff", backoff, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := g.embedder.Embed(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}
