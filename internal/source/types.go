// Package source reads heterogeneous origin content and normalizes it into
// a common ingestion record shape.
//
// Relational connectors (documentation, CMS entries, forum posts, products)
// read from the content store through the ContentQuerier interface and only
// ever see published/active rows. The drive subpackage syncs an external
// folder. Every connector yields []Record; the indexer neither knows nor
// cares where a record came from.
package source

import (
	"errors"
	"time"

	"github.com/tessera-ai/tessera/internal/chunk"
)

// ErrSourceRead indicates a connector failed to read from its origin.
// Item-level read failures are logged and skipped; a wholesale failure
// (query error, listing error) aborts only that connector's pipeline.
var ErrSourceRead = errors.New("source read error")

// Record is the normalized ingestion shape every connector produces.
type Record struct {
	SourceID    string
	ContentType chunk.ContentType
	TenantID    string
	Title       string
	Content     string
	URL         string
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Author is empty for unattributed content.
	Author string

	// DriveFileID is set only by the drive connector.
	DriveFileID string
}

// Metadata converts the record into base chunk metadata. Section is left
// empty; the chunker assigns it per chunk.
func (r Record) Metadata() chunk.Metadata {
	return chunk.Metadata{
		ContentType: r.ContentType,
		TenantID:    r.TenantID,
		SourceID:    r.SourceID,
		Title:       r.Title,
		URL:         r.URL,
		Author:      r.Author,
		Tags:        r.Tags,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		DriveFileID: r.DriveFileID,
	}
}
