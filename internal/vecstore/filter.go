package vecstore

import (
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/tessera-ai/tessera/internal/chunk"
)

// Filter narrows a similarity search. Fields are independently optional and
// combine with AND across fields, OR within a field's set. Tenant scoping is
// not part of Filter: it is a mandatory parameter on every store operation.
type Filter struct {
	// ContentTypes matches chunks whose content type is any of these.
	ContentTypes []chunk.ContentType

	// Tags matches chunks sharing at least one tag.
	Tags []string

	// SourceID matches chunks of exactly one source item.
	SourceID string
}

// buildSearchQuery assembles the similarity search statement. The query
// vector is always $1 so the ORDER BY can reuse it; similarity is computed
// as 1 - cosine distance, the single scoring convention of this deployment.
func buildSearchQuery(vec pgvector.Vector, tenantID string, f Filter, limit int) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, content, content_type, source_id, title, url, author, tags,
	section, drive_file_id, created_at, updated_at,
	1 - (embedding <=> $1) AS similarity
FROM content_chunks
WHERE tenant_id = $2`)

	args := []any{vec, tenantID}

	if len(f.ContentTypes) > 0 {
		types := make([]string, len(f.ContentTypes))
		for i, ct := range f.ContentTypes {
			types[i] = string(ct)
		}
		args = append(args, types)
		fmt.Fprintf(&sb, " AND content_type = ANY($%d)", len(args))
	}

	if len(f.Tags) > 0 {
		args = append(args, f.Tags)
		fmt.Fprintf(&sb, " AND tags && $%d", len(args))
	}

	if f.SourceID != "" {
		args = append(args, f.SourceID)
		fmt.Fprintf(&sb, " AND source_id = $%d", len(args))
	}

	args = append(args, limit)
	fmt.Fprintf(&sb, "\nORDER BY embedding <=> $1\nLIMIT $%d", len(args))

	return sb.String(), args
}
