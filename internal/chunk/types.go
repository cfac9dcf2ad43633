package chunk

import "time"

// ContentType identifies the origin category of an indexed content item.
// It is stored with every chunk and used as a retrieval filter facet.
type ContentType string

// Known content types. Each maps to a chunking strategy and, except
// TypeUserProfile, to a source connector.
const (
	TypeDocumentation ContentType = "documentation"
	TypeCMSContent    ContentType = "cms_content"
	TypeForumPost     ContentType = "forum_post"
	TypeProduct       ContentType = "product"
	TypeUserProfile   ContentType = "user_profile"
	TypeGoogleDrive   ContentType = "google_drive"
)

// Valid reports whether ct is one of the known content types.
func (ct ContentType) Valid() bool {
	switch ct {
	case TypeDocumentation, TypeCMSContent, TypeForumPost, TypeProduct, TypeUserProfile, TypeGoogleDrive:
		return true
	default:
		return false
	}
}

// Metadata carries the provenance of a chunk. All reads and writes against
// the vector store are scoped by TenantID; SourceID identifies the originating
// content item and stays stable across re-indexing.
type Metadata struct {
	ContentType ContentType
	TenantID    string
	SourceID    string
	Title       string
	URL         string

	// Author is optional and empty for system-authored content.
	Author string

	// Tags are an ordered filter facet from the source system.
	Tags []string

	// CreatedAt and UpdatedAt come from the source system, not the index.
	CreatedAt time.Time
	UpdatedAt time.Time

	// Section is a sub-identifier within a source item (e.g. "chunk_3",
	// "section_1"). Empty for whole-document chunks.
	Section string

	// DriveFileID is set only for google_drive content.
	DriveFileID string
}

// ContentChunk is the atomic indexed unit: a bounded span of a source item's
// text together with its provenance and, once generated, its embedding.
//
// Chunks are never mutated in place. Re-indexing a source item deletes every
// chunk stored under its (tenant, source) key and inserts fresh ones.
type ContentChunk struct {
	// ID is unique per (tenant, collection): "{source_id}_chunk_{n}" for
	// generic splits, "{source_id}_post" for whole forum posts.
	ID string

	// Content is the chunk text, HTML-stripped and whitespace-normalized.
	Content string

	Metadata Metadata

	// Embedding is nil until the chunk has been embedded. Its length must
	// match the deployment's configured vector dimension.
	Embedding []float32
}
