// Package vecstore manages the single logical chunk collection in
// PostgreSQL + pgvector.
//
// One table holds all chunks across tenants and content types; tenant
// isolation is enforced through a mandatory tenant_id predicate on every
// read and write, never through separate collections. Chunk metadata lives
// in typed columns and is validated when rows are read back, so loose store
// payloads never leak past this boundary.
package vecstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/tessera-ai/tessera/internal/chunk"
)

// ErrVectorStore indicates an upsert, search, or delete against the chunk
// collection failed. Callers decide the policy: the indexer aborts the item,
// the retriever degrades to empty results.
var ErrVectorStore = errors.New("vector store error")

// Operation timeouts. Searches block an interactive caller; writes run
// inside batch indexing and get more headroom.
const (
	searchTimeout = 10 * time.Second
	writeTimeout  = 30 * time.Second
)

// SearchResult is one ranked hit from a similarity search.
type SearchResult struct {
	ID       string
	Content  string
	Metadata chunk.Metadata

	// Score is a similarity: 1 - cosine distance, higher is better.
	Score float64
}

// Store is the vector store adapter. Construct one per process and share it;
// it is safe for concurrent use.
type Store struct {
	pool      *pgxpool.Pool
	dimension int
	logger    *slog.Logger
}

// New creates a Store over an existing connection pool. dimension must match
// the embedding model; EnsureSchema creates the collection with it.
func New(pool *pgxpool.Pool, dimension int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		pool:      pool,
		dimension: dimension,
		logger:    logger,
	}
}

// EnsureSchema makes sure the chunk collection exists, creating it with the
// configured dimension when absent. It is idempotent and tolerates creation
// races: a concurrent CREATE losing the race surfaces as "already exists",
// which is re-checked and ignored.
//
// Deployments using migrations (db package) get the same schema; this path
// covers embedded and test setups.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	var reg *string
	err := s.pool.QueryRow(ctx, `SELECT to_regclass('public.content_chunks')::text`).Scan(&reg)
	if err != nil {
		return fmt.Errorf("%w: probing collection: %v", ErrVectorStore, err)
	}
	if reg != nil {
		return nil
	}

	ddl := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS content_chunks (
	tenant_id     TEXT NOT NULL,
	id            TEXT NOT NULL,
	source_id     TEXT NOT NULL,
	content_type  TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	url           TEXT NOT NULL DEFAULT '',
	author        TEXT NOT NULL DEFAULT '',
	tags          TEXT[] NOT NULL DEFAULT '{}',
	section       TEXT NOT NULL DEFAULT '',
	drive_file_id TEXT NOT NULL DEFAULT '',
	content       TEXT NOT NULL,
	embedding     VECTOR(%d) NOT NULL,
	created_at    TIMESTAMPTZ,
	updated_at    TIMESTAMPTZ,
	indexed_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (tenant_id, id)
);

CREATE INDEX IF NOT EXISTS content_chunks_source_idx
	ON content_chunks (tenant_id, source_id);

CREATE INDEX IF NOT EXISTS content_chunks_embedding_idx
	ON content_chunks USING hnsw (embedding vector_cosine_ops);
`, s.dimension)

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		// Lost a creation race: the table exists now, which is what we want.
		var reg2 *string
		if probeErr := s.pool.QueryRow(ctx, `SELECT to_regclass('public.content_chunks')::text`).Scan(&reg2); probeErr == nil && reg2 != nil {
			return nil
		}
		return fmt.Errorf("%w: creating collection: %v", ErrVectorStore, err)
	}

	s.logger.Info("created chunk collection", "dimension", s.dimension)
	return nil
}

// Upsert writes chunks, overwriting by (tenant, id). Every chunk must carry
// an embedding of the configured dimension. The batch is not atomic: a
// failure may leave earlier chunks written, and the caller retries the whole
// batch.
func (s *Store) Upsert(ctx context.Context, chunks []chunk.ContentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for _, c := range chunks {
		if len(c.Embedding) != s.dimension {
			return fmt.Errorf("%w: chunk %q has embedding dimension %d, want %d",
				ErrVectorStore, c.ID, len(c.Embedding), s.dimension)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	const stmt = `
INSERT INTO content_chunks (
	tenant_id, id, source_id, content_type, title, url, author, tags,
	section, drive_file_id, content, embedding, created_at, updated_at, indexed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now())
ON CONFLICT (tenant_id, id) DO UPDATE SET
	source_id     = EXCLUDED.source_id,
	content_type  = EXCLUDED.content_type,
	title         = EXCLUDED.title,
	url           = EXCLUDED.url,
	author        = EXCLUDED.author,
	tags          = EXCLUDED.tags,
	section       = EXCLUDED.section,
	drive_file_id = EXCLUDED.drive_file_id,
	content       = EXCLUDED.content,
	embedding     = EXCLUDED.embedding,
	created_at    = EXCLUDED.created_at,
	updated_at    = EXCLUDED.updated_at,
	indexed_at    = now()`

	batch := &pgx.Batch{}
	for _, c := range chunks {
		m := c.Metadata
		batch.Queue(stmt,
			m.TenantID, c.ID, m.SourceID, string(m.ContentType), m.Title, m.URL,
			m.Author, tagsOrEmpty(m.Tags), m.Section, m.DriveFileID, c.Content,
			pgvector.NewVector(c.Embedding),
			nullableTime(m.CreatedAt), nullableTime(m.UpdatedAt),
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer func() {
		if err := results.Close(); err != nil {
			s.logger.Debug("closing upsert batch", "error", err)
		}
	}()

	for i := range chunks {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("%w: upserting chunk %q: %v", ErrVectorStore, chunks[i].ID, err)
		}
	}

	s.logger.Debug("upserted chunks", "count", len(chunks))
	return nil
}

// Search returns up to limit chunks ranked by similarity to queryVec,
// restricted to tenantID and the optional filter. Scores descend.
func (s *Store) Search(ctx context.Context, queryVec []float32, tenantID string, f Filter, limit int) ([]SearchResult, error) {
	if len(queryVec) != s.dimension {
		return nil, fmt.Errorf("%w: query vector dimension %d, want %d",
			ErrVectorStore, len(queryVec), s.dimension)
	}
	if limit <= 0 {
		limit = 5
	}

	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	sql, args := buildSearchQuery(pgvector.NewVector(queryVec), tenantID, f, limit)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: search timeout: %v", ErrVectorStore, err)
		}
		return nil, fmt.Errorf("%w: search: %v", ErrVectorStore, err)
	}
	defer rows.Close()

	results := make([]SearchResult, 0, limit)
	for rows.Next() {
		var (
			r           SearchResult
			contentType string
			createdAt   pgtype.Timestamptz
			updatedAt   pgtype.Timestamptz
		)
		if err := rows.Scan(&r.ID, &r.Content, &contentType, &r.Metadata.SourceID,
			&r.Metadata.Title, &r.Metadata.URL, &r.Metadata.Author, &r.Metadata.Tags,
			&r.Metadata.Section, &r.Metadata.DriveFileID, &createdAt, &updatedAt,
			&r.Score); err != nil {
			return nil, fmt.Errorf("%w: scanning result: %v", ErrVectorStore, err)
		}

		r.Metadata.TenantID = tenantID
		r.Metadata.ContentType = chunk.ContentType(contentType)
		if !r.Metadata.ContentType.Valid() {
			s.logger.Warn("unknown content type in store", "id", r.ID, "content_type", contentType)
		}
		if createdAt.Valid {
			r.Metadata.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			r.Metadata.UpdatedAt = updatedAt.Time
		}

		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading results: %v", ErrVectorStore, err)
	}

	return results, nil
}

// DeleteBySource removes every chunk of one source item within one tenant.
// Deleting a key with no chunks is a successful no-op; this is the first
// step of every re-index and must be safe when nothing exists yet.
func (s *Store) DeleteBySource(ctx context.Context, sourceID, tenantID string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM content_chunks WHERE tenant_id = $1 AND source_id = $2`,
		tenantID, sourceID)
	if err != nil {
		return fmt.Errorf("%w: deleting source %q: %v", ErrVectorStore, sourceID, err)
	}

	if tag.RowsAffected() > 0 {
		s.logger.Debug("deleted stale chunks",
			"source_id", sourceID, "tenant_id", tenantID, "count", tag.RowsAffected())
	}
	return nil
}

// Stats returns the chunk count per content type for one tenant.
func (s *Store) Stats(ctx context.Context, tenantID string) (map[chunk.ContentType]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT content_type, count(*) FROM content_chunks WHERE tenant_id = $1 GROUP BY content_type`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: stats: %v", ErrVectorStore, err)
	}
	defer rows.Close()

	stats := make(map[chunk.ContentType]int64)
	for rows.Next() {
		var (
			ct    string
			count int64
		)
		if err := rows.Scan(&ct, &count); err != nil {
			return nil, fmt.Errorf("%w: scanning stats: %v", ErrVectorStore, err)
		}
		stats[chunk.ContentType(ct)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading stats: %v", ErrVectorStore, err)
	}

	return stats, nil
}

// tagsOrEmpty keeps the tags column NOT NULL friendly.
func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// nullableTime maps the zero time to SQL NULL.
func nullableTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}
