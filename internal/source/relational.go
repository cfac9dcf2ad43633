package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tessera-ai/tessera/internal/chunk"
)

// ContentQuerier defines the read interface against the relational content
// store. Following Go best practices: interfaces are defined by the
// consumer, not the provider. The production implementation is PGContent;
// tests substitute a mock.
//
// Every method returns only rows visible to end users: published
// documentation and CMS entries, active forum posts and products.
// Unpublished content must never reach the index.
type ContentQuerier interface {
	ListPublishedDocumentation(ctx context.Context, tenantID string) ([]DocumentationRow, error)
	ListPublishedCMSEntries(ctx context.Context, tenantID string) ([]CMSEntryRow, error)
	ListActiveForumPosts(ctx context.Context, tenantID string) ([]ForumPostRow, error)
	ListActiveProducts(ctx context.Context, tenantID string) ([]ProductRow, error)
}

// DocumentationRow is one published documentation page.
type DocumentationRow struct {
	ID        int64
	Title     string
	Content   string
	Slug      string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CMSEntryRow is one published CMS entry.
type CMSEntryRow struct {
	ID        int64
	Title     string
	Body      string
	Slug      string
	Author    string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ForumPostRow is one active forum post.
type ForumPostRow struct {
	ID         int64
	Title      string
	Body       string
	AuthorName string
	Tags       []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProductRow is one active product listing.
type ProductRow struct {
	ID          int64
	Name        string
	Description string
	Slug        string
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Documentation reads published documentation pages.
type Documentation struct {
	q      ContentQuerier
	logger *slog.Logger
}

// NewDocumentation creates the documentation connector.
func NewDocumentation(q ContentQuerier, logger *slog.Logger) *Documentation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Documentation{q: q, logger: logger}
}

// Type returns the content type this connector produces.
func (*Documentation) Type() chunk.ContentType { return chunk.TypeDocumentation }

// Fetch reads all published documentation for the tenant.
func (d *Documentation) Fetch(ctx context.Context, tenantID string) ([]Record, error) {
	rows, err := d.q.ListPublishedDocumentation(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: documentation: %v", ErrSourceRead, err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			SourceID:    fmt.Sprintf("doc_%d", row.ID),
			ContentType: chunk.TypeDocumentation,
			TenantID:    tenantID,
			Title:       row.Title,
			Content:     row.Content,
			URL:         "/docs/" + row.Slug,
			Tags:        row.Tags,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
		})
	}
	return records, nil
}

// CMS reads published CMS entries.
type CMS struct {
	q      ContentQuerier
	logger *slog.Logger
}

// NewCMS creates the CMS connector.
func NewCMS(q ContentQuerier, logger *slog.Logger) *CMS {
	if logger == nil {
		logger = slog.Default()
	}
	return &CMS{q: q, logger: logger}
}

// Type returns the content type this connector produces.
func (*CMS) Type() chunk.ContentType { return chunk.TypeCMSContent }

// Fetch reads all published CMS entries for the tenant.
func (c *CMS) Fetch(ctx context.Context, tenantID string) ([]Record, error) {
	rows, err := c.q.ListPublishedCMSEntries(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: cms entries: %v", ErrSourceRead, err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			SourceID:    fmt.Sprintf("cms_%d", row.ID),
			ContentType: chunk.TypeCMSContent,
			TenantID:    tenantID,
			Title:       row.Title,
			Content:     row.Body,
			URL:         "/content/" + row.Slug,
			Author:      row.Author,
			Tags:        row.Tags,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
		})
	}
	return records, nil
}

// Forum reads active forum posts.
type Forum struct {
	q      ContentQuerier
	logger *slog.Logger
}

// NewForum creates the forum connector.
func NewForum(q ContentQuerier, logger *slog.Logger) *Forum {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forum{q: q, logger: logger}
}

// Type returns the content type this connector produces.
func (*Forum) Type() chunk.ContentType { return chunk.TypeForumPost }

// Fetch reads all active forum posts for the tenant.
func (f *Forum) Fetch(ctx context.Context, tenantID string) ([]Record, error) {
	rows, err := f.q.ListActiveForumPosts(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: forum posts: %v", ErrSourceRead, err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			SourceID:    fmt.Sprintf("forum_%d", row.ID),
			ContentType: chunk.TypeForumPost,
			TenantID:    tenantID,
			Title:       row.Title,
			Content:     row.Body,
			URL:         fmt.Sprintf("/forum/posts/%d", row.ID),
			Author:      row.AuthorName,
			Tags:        row.Tags,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
		})
	}
	return records, nil
}

// Products reads active product listings.
type Products struct {
	q      ContentQuerier
	logger *slog.Logger
}

// NewProducts creates the products connector.
func NewProducts(q ContentQuerier, logger *slog.Logger) *Products {
	if logger == nil {
		logger = slog.Default()
	}
	return &Products{q: q, logger: logger}
}

// Type returns the content type this connector produces.
func (*Products) Type() chunk.ContentType { return chunk.TypeProduct }

// Fetch reads all active products for the tenant.
func (p *Products) Fetch(ctx context.Context, tenantID string) ([]Record, error) {
	rows, err := p.q.ListActiveProducts(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: products: %v", ErrSourceRead, err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			SourceID:    fmt.Sprintf("product_%d", row.ID),
			ContentType: chunk.TypeProduct,
			TenantID:    tenantID,
			Title:       row.Name,
			Content:     row.Description,
			URL:         "/shop/" + row.Slug,
			Tags:        row.Tags,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
		})
	}
	return records, nil
}
