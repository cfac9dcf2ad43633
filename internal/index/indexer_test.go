package index

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/tessera-ai/tessera/internal/chunk"
	"github.com/tessera-ai/tessera/internal/source"
	"github.com/tessera-ai/tessera/internal/testutil"
)

// ============================================================
// Mocks
// ============================================================

type mockStore struct {
	mu        sync.Mutex
	chunks    map[string][]chunk.ContentChunk // keyed by source id
	deleteErr error
	upsertErr error
	deletes   []string
}

func newMockStore() *mockStore {
	return &mockStore{chunks: make(map[string][]chunk.ContentChunk)}
}

func (m *mockStore) Upsert(_ context.Context, chunks []chunk.ContentChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, c := range chunks {
		m.chunks[c.Metadata.SourceID] = append(m.chunks[c.Metadata.SourceID], c)
	}
	return nil
}

func (m *mockStore) DeleteBySource(_ context.Context, sourceID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletes = append(m.deletes, sourceID)
	delete(m.chunks, sourceID)
	return nil
}

func (m *mockStore) stored(sourceID string) []chunk.ContentChunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chunks[sourceID]
}

type mockEmbedder struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = testutil.Vector(testutil.TestDimension, texts[i])
	}
	return vectors, nil
}

type mockConnector struct {
	contentType chunk.ContentType
	records     []source.Record
	err         error
}

func (m *mockConnector) Type() chunk.ContentType { return m.contentType }

func (m *mockConnector) Fetch(_ context.Context, _ string) ([]source.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func record(sourceID, content string) source.Record {
	return source.Record{
		SourceID:    sourceID,
		ContentType: chunk.TypeCMSContent,
		TenantID:    "tenant-1",
		Title:       "Title of " + sourceID,
		Content:     content,
	}
}

func newIndexer(store VectorStore, embedder Embedder, connectors ...Connector) *Indexer {
	return New(store, embedder, chunk.New(chunk.DefaultConfig()), connectors, testutil.NopLogger())
}

// ============================================================
// IndexItem
// ============================================================

func TestIndexItem(t *testing.T) {
	ctx := context.Background()

	t.Run("stores embedded chunks", func(t *testing.T) {
		store := newMockStore()
		ix := newIndexer(store, &mockEmbedder{})

		n, err := ix.IndexItem(ctx, record("cms_1", strings.Repeat("content text ", 50)))
		if err != nil {
			t.Fatalf("IndexItem() error = %v", err)
		}
		if n == 0 {
			t.Fatal("IndexItem() indexed zero chunks")
		}
		stored := store.stored("cms_1")
		if len(stored) != n {
			t.Fatalf("stored %d chunks, want %d", len(stored), n)
		}
		for _, c := range stored {
			if len(c.Embedding) != testutil.TestDimension {
				t.Errorf("chunk %s embedding dimension = %d, want %d", c.ID, len(c.Embedding), testutil.TestDimension)
			}
		}
	})

	t.Run("deletes stale chunks before insert", func(t *testing.T) {
		store := newMockStore()
		ix := newIndexer(store, &mockEmbedder{})

		if _, err := ix.IndexItem(ctx, record("cms_1", strings.Repeat("original long body ", 200))); err != nil {
			t.Fatalf("first IndexItem() error = %v", err)
		}
		first := len(store.stored("cms_1"))

		// Shrunk content must fully replace the original chunk set.
		if _, err := ix.IndexItem(ctx, record("cms_1", "short body")); err != nil {
			t.Fatalf("second IndexItem() error = %v", err)
		}
		second := len(store.stored("cms_1"))
		if second >= first {
			t.Errorf("re-index left %d chunks, first run stored %d", second, first)
		}
		if second != 1 {
			t.Errorf("re-index stored %d chunks, want 1", second)
		}
	})

	t.Run("empty content is a clean removal", func(t *testing.T) {
		store := newMockStore()
		ix := newIndexer(store, &mockEmbedder{})

		if _, err := ix.IndexItem(ctx, record("cms_1", "old body")); err != nil {
			t.Fatalf("IndexItem() error = %v", err)
		}
		n, err := ix.IndexItem(ctx, record("cms_1", "   "))
		if err != nil {
			t.Fatalf("IndexItem(empty) error = %v", err)
		}
		if n != 0 {
			t.Errorf("IndexItem(empty) = %d chunks, want 0", n)
		}
		if got := store.stored("cms_1"); len(got) != 0 {
			t.Errorf("store still holds %d chunks after empty re-index", len(got))
		}
	})

	t.Run("delete failure aborts before embedding", func(t *testing.T) {
		store := newMockStore()
		store.deleteErr = errors.New("connection refused")
		embedder := &mockEmbedder{}
		ix := newIndexer(store, embedder)

		if _, err := ix.IndexItem(ctx, record("cms_1", "body")); err == nil {
			t.Fatal("IndexItem() error = nil, want delete failure")
		}
		if embedder.calls != 0 {
			t.Errorf("embedder called %d times after delete failure, want 0", embedder.calls)
		}
	})

	t.Run("embedding failure stores nothing", func(t *testing.T) {
		store := newMockStore()
		ix := newIndexer(store, &mockEmbedder{err: errors.New("quota exceeded")})

		if _, err := ix.IndexItem(ctx, record("cms_1", "body")); err == nil {
			t.Fatal("IndexItem() error = nil, want embedding failure")
		}
		if got := store.stored("cms_1"); len(got) != 0 {
			t.Errorf("store holds %d chunks after embedding failure", len(got))
		}
	})

	t.Run("rejects record without tenant", func(t *testing.T) {
		ix := newIndexer(newMockStore(), &mockEmbedder{})
		rec := record("cms_1", "body")
		rec.TenantID = ""
		if _, err := ix.IndexItem(ctx, rec); err == nil {
			t.Fatal("IndexItem() error = nil, want validation failure")
		}
	})
}

// ============================================================
// IndexTenant
// ============================================================

func TestIndexTenant(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	t.Run("indexes all connectors", func(t *testing.T) {
		store := newMockStore()
		ix := newIndexer(store, &mockEmbedder{},
			&mockConnector{contentType: chunk.TypeCMSContent, records: []source.Record{
				record("cms_1", "first entry"),
				record("cms_2", "second entry"),
			}},
			&mockConnector{contentType: chunk.TypeForumPost, records: []source.Record{
				record("forum_1", "a question"),
			}},
		)

		result, err := ix.IndexTenant(ctx, "tenant-1")
		if err != nil {
			t.Fatalf("IndexTenant() error = %v", err)
		}
		if result.Items != 3 {
			t.Errorf("Items = %d, want 3", result.Items)
		}
		if result.FailedItems != 0 || len(result.FailedSources) != 0 {
			t.Errorf("unexpected failures: %+v", result)
		}
		if result.RunID == "" {
			t.Error("RunID is empty")
		}
	})

	t.Run("connector failure does not stop the others", func(t *testing.T) {
		store := newMockStore()
		ix := newIndexer(store, &mockEmbedder{},
			&mockConnector{contentType: chunk.TypeDocumentation, err: fmt.Errorf("%w: database down", source.ErrSourceRead)},
			&mockConnector{contentType: chunk.TypeCMSContent, records: []source.Record{
				record("cms_1", "survives"),
			}},
		)

		result, err := ix.IndexTenant(ctx, "tenant-1")
		if err != nil {
			t.Fatalf("IndexTenant() error = %v", err)
		}
		if result.Items != 1 {
			t.Errorf("Items = %d, want 1", result.Items)
		}
		if len(result.FailedSources) != 1 || result.FailedSources[0] != string(chunk.TypeDocumentation) {
			t.Errorf("FailedSources = %v, want [documentation]", result.FailedSources)
		}
		if len(store.stored("cms_1")) == 0 {
			t.Error("healthy connector's content was not stored")
		}
	})

	t.Run("item failure counted, pipeline continues", func(t *testing.T) {
		store := newMockStore()
		bad := record("cms_bad", "body")
		bad.TenantID = ""
		ix := newIndexer(store, &mockEmbedder{},
			&mockConnector{contentType: chunk.TypeCMSContent, records: []source.Record{
				bad,
				record("cms_ok", "good body"),
			}},
		)

		result, err := ix.IndexTenant(ctx, "tenant-1")
		if err != nil {
			t.Fatalf("IndexTenant() error = %v", err)
		}
		if result.Items != 1 || result.FailedItems != 1 {
			t.Errorf("Items = %d, FailedItems = %d, want 1 and 1", result.Items, result.FailedItems)
		}
	})

	t.Run("rejects empty tenant", func(t *testing.T) {
		ix := newIndexer(newMockStore(), &mockEmbedder{})
		if _, err := ix.IndexTenant(ctx, ""); err == nil {
			t.Fatal("IndexTenant(\"\") error = nil, want validation failure")
		}
	})
}

func TestDeleteContent(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	ix := newIndexer(store, &mockEmbedder{})

	if _, err := ix.IndexItem(ctx, record("cms_1", "body")); err != nil {
		t.Fatalf("IndexItem() error = %v", err)
	}
	if err := ix.DeleteContent(ctx, "tenant-1", "cms_1"); err != nil {
		t.Fatalf("DeleteContent() error = %v", err)
	}
	if got := store.stored("cms_1"); len(got) != 0 {
		t.Errorf("store holds %d chunks after delete", len(got))
	}

	// Deleting content that was never indexed is a no-op.
	if err := ix.DeleteContent(ctx, "tenant-1", "cms_missing"); err != nil {
		t.Errorf("DeleteContent(missing) error = %v", err)
	}
}

func TestEmbeddingText(t *testing.T) {
	c := chunk.ContentChunk{Content: "body", Metadata: chunk.Metadata{Title: "Guide"}}
	if got := embeddingText(c); got != "Guide\n\nbody" {
		t.Errorf("embeddingText() = %q", got)
	}
	c.Metadata.Title = ""
	if got := embeddingText(c); got != "body" {
		t.Errorf("embeddingText() without title = %q", got)
	}
}
