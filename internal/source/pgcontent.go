package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGContent implements ContentQuerier against the relational content store.
// It only ever reads; the content tables are owned by the web application.
type PGContent struct {
	pool *pgxpool.Pool
}

// NewPGContent creates the pgx-backed content querier.
func NewPGContent(pool *pgxpool.Pool) *PGContent {
	return &PGContent{pool: pool}
}

// ListPublishedDocumentation returns published documentation pages.
func (p *PGContent) ListPublishedDocumentation(ctx context.Context, tenantID string) ([]DocumentationRow, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id, title, content, slug, COALESCE(tags, '{}'), created_at, updated_at
FROM documentation
WHERE tenant_id = $1 AND status = 'published'
ORDER BY id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying documentation: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (DocumentationRow, error) {
		var r DocumentationRow
		err := row.Scan(&r.ID, &r.Title, &r.Content, &r.Slug, &r.Tags, &r.CreatedAt, &r.UpdatedAt)
		return r, err
	})
}

// ListPublishedCMSEntries returns published CMS entries.
func (p *PGContent) ListPublishedCMSEntries(ctx context.Context, tenantID string) ([]CMSEntryRow, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id, title, body, slug, COALESCE(author, ''), COALESCE(tags, '{}'), created_at, updated_at
FROM cms_entries
WHERE tenant_id = $1 AND status = 'published'
ORDER BY id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying cms entries: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (CMSEntryRow, error) {
		var r CMSEntryRow
		err := row.Scan(&r.ID, &r.Title, &r.Body, &r.Slug, &r.Author, &r.Tags, &r.CreatedAt, &r.UpdatedAt)
		return r, err
	})
}

// ListActiveForumPosts returns active forum posts.
func (p *PGContent) ListActiveForumPosts(ctx context.Context, tenantID string) ([]ForumPostRow, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id, title, body, COALESCE(author_name, ''), COALESCE(tags, '{}'), created_at, updated_at
FROM forum_posts
WHERE tenant_id = $1 AND status = 'active'
ORDER BY id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying forum posts: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ForumPostRow, error) {
		var r ForumPostRow
		err := row.Scan(&r.ID, &r.Title, &r.Body, &r.AuthorName, &r.Tags, &r.CreatedAt, &r.UpdatedAt)
		return r, err
	})
}

// ListActiveProducts returns active product listings.
func (p *PGContent) ListActiveProducts(ctx context.Context, tenantID string) ([]ProductRow, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id, name, description, slug, COALESCE(tags, '{}'), created_at, updated_at
FROM products
WHERE tenant_id = $1 AND status = 'active'
ORDER BY id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ProductRow, error) {
		var r ProductRow
		err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Slug, &r.Tags, &r.CreatedAt, &r.UpdatedAt)
		return r, err
	})
}
