package vecstore

import (
	"strings"
	"testing"

	"github.com/pgvector/pgvector-go"

	"github.com/tessera-ai/tessera/internal/chunk"
)

func TestBuildSearchQuery(t *testing.T) {
	vec := pgvector.NewVector([]float32{0.1, 0.2})

	t.Run("no filter", func(t *testing.T) {
		sql, args := buildSearchQuery(vec, "tenant-1", Filter{}, 5)

		if !strings.Contains(sql, "tenant_id = $2") {
			t.Errorf("query missing tenant predicate:\n%s", sql)
		}
		if strings.Contains(sql, "content_type = ANY") || strings.Contains(sql, "tags &&") {
			t.Errorf("empty filter produced predicates:\n%s", sql)
		}
		if !strings.Contains(sql, "ORDER BY embedding <=> $1") {
			t.Errorf("query missing distance ordering:\n%s", sql)
		}
		if !strings.Contains(sql, "1 - (embedding <=> $1) AS similarity") {
			t.Errorf("query missing similarity projection:\n%s", sql)
		}
		// vec, tenant, limit
		if len(args) != 3 {
			t.Errorf("got %d args, want 3", len(args))
		}
		if args[len(args)-1] != 5 {
			t.Errorf("last arg = %v, want limit 5", args[len(args)-1])
		}
	})

	t.Run("content types", func(t *testing.T) {
		f := Filter{ContentTypes: []chunk.ContentType{chunk.TypeForumPost, chunk.TypeCMSContent}}
		sql, args := buildSearchQuery(vec, "tenant-1", f, 5)

		if !strings.Contains(sql, "content_type = ANY($3)") {
			t.Errorf("query missing content type predicate:\n%s", sql)
		}
		types, ok := args[2].([]string)
		if !ok || len(types) != 2 || types[0] != "forum_post" {
			t.Errorf("arg 3 = %v, want [forum_post cms_content]", args[2])
		}
	})

	t.Run("tags overlap", func(t *testing.T) {
		f := Filter{Tags: []string{"billing", "refunds"}}
		sql, args := buildSearchQuery(vec, "tenant-1", f, 5)

		if !strings.Contains(sql, "tags && $3") {
			t.Errorf("query missing tags predicate:\n%s", sql)
		}
		if len(args) != 4 {
			t.Errorf("got %d args, want 4", len(args))
		}
	})

	t.Run("all filters placeholders stay in sync", func(t *testing.T) {
		f := Filter{
			ContentTypes: []chunk.ContentType{chunk.TypeDocumentation},
			Tags:         []string{"setup"},
			SourceID:     "doc_1",
		}
		sql, args := buildSearchQuery(vec, "tenant-1", f, 10)

		for _, want := range []string{
			"content_type = ANY($3)",
			"tags && $4",
			"source_id = $5",
			"LIMIT $6",
		} {
			if !strings.Contains(sql, want) {
				t.Errorf("query missing %q:\n%s", want, sql)
			}
		}
		if len(args) != 6 {
			t.Errorf("got %d args, want 6", len(args))
		}
	})
}
