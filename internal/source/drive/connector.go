// Package drive syncs a Google Drive folder into ingestion records.
//
// Files are listed from one configured folder. Google Docs are flattened to
// plain text through the Docs API (paragraphs and table cells in document
// order); plain-text files are downloaded as-is; everything else is skipped.
// Per-file failures never abort the sync: the folder is expected to contain
// the occasional unreadable file, and partial success is the normal outcome.
package drive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/tessera-ai/tessera/internal/chunk"
	"github.com/tessera-ai/tessera/internal/source"
)

// Google Workspace MIME types.
const (
	mimeGoogleDoc = "application/vnd.google-apps.document"
	mimeFolder    = "application/vnd.google-apps.folder"
)

// maxFileSize caps downloaded plain-text content (5MB).
const maxFileSize = 5 * 1024 * 1024

// pageSize is the Drive listing page size.
const pageSize = 100

// Conservative rate limit, well under the 10 req/sec/user Drive quota.
const (
	requestsPerSecond = 8.0
	burstSize         = 10
)

// Connector reads a single Drive folder. Construct with New.
type Connector struct {
	files    *drive.Service
	docs     *docs.Service
	folderID string
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// New creates the Drive connector using service-account credentials.
func New(ctx context.Context, credentialsFile, folderID string, logger *slog.Logger) (*Connector, error) {
	if logger == nil {
		logger = slog.Default()
	}

	filesSvc, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}

	docsSvc, err := docs.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(docs.DocumentsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("creating docs service: %w", err)
	}

	return &Connector{
		files:    filesSvc,
		docs:     docsSvc,
		folderID: folderID,
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize),
		logger:   logger,
	}, nil
}

// Type returns the content type this connector produces.
func (*Connector) Type() chunk.ContentType { return chunk.TypeGoogleDrive }

// Fetch lists the configured folder and extracts text from each file.
// Files that fail extraction or come back empty are logged and skipped.
func (c *Connector) Fetch(ctx context.Context, tenantID string) ([]source.Record, error) {
	files, err := c.listFolder(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing drive folder %q: %v", source.ErrSourceRead, c.folderID, err)
	}

	records := make([]source.Record, 0, len(files))
	for _, f := range files {
		if f.MimeType == mimeFolder {
			continue
		}
		if reason := skipReason(f); reason != "" {
			c.logger.Warn("skipping drive file: "+reason,
				"file_id", f.Id, "name", f.Name, "mime_type", f.MimeType, "size", f.Size)
			continue
		}

		content, err := c.extractText(ctx, f)
		if err != nil {
			c.logger.Warn("skipping drive file: extraction failed",
				"file_id", f.Id, "name", f.Name, "error", err)
			continue
		}
		if strings.TrimSpace(content) == "" {
			c.logger.Debug("skipping drive file: empty content",
				"file_id", f.Id, "name", f.Name)
			continue
		}

		records = append(records, source.Record{
			SourceID:    "drive_" + f.Id,
			ContentType: chunk.TypeGoogleDrive,
			TenantID:    tenantID,
			Title:       f.Name,
			Content:     content,
			URL:         f.WebViewLink,
			CreatedAt:   parseDriveTime(f.CreatedTime),
			UpdatedAt:   parseDriveTime(f.ModifiedTime),
			DriveFileID: f.Id,
		})
	}

	c.logger.Info("drive folder synced",
		"folder_id", c.folderID, "files", len(files), "records", len(records))
	return records, nil
}

// listFolder pages through the folder's direct children.
func (c *Connector) listFolder(ctx context.Context) ([]*drive.File, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", c.folderID)

	var files []*drive.File
	pageToken := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		call := c.files.Files.List().
			Q(query).
			PageSize(pageSize).
			Fields("nextPageToken, files(id, name, mimeType, webViewLink, createdTime, modifiedTime, size)").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("listing files: %w", err)
		}

		files = append(files, list.Files...)
		pageToken = list.NextPageToken
		if pageToken == "" {
			return files, nil
		}
	}
}

// skipReason reports why a file cannot be indexed, or "" when it can.
// Callers filter on this before extractText.
func skipReason(f *drive.File) string {
	switch {
	case f.MimeType == mimeGoogleDoc:
		return ""
	case isPlainText(f.MimeType):
		if f.Size > maxFileSize {
			return "file too large"
		}
		return ""
	default:
		return "unsupported mime type"
	}
}

// extractText returns the plain-text content of an indexable file.
func (c *Connector) extractText(ctx context.Context, f *drive.File) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	if f.MimeType == mimeGoogleDoc {
		doc, err := c.docs.Documents.Get(f.Id).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("fetching document: %w", err)
		}
		return FlattenDocument(doc), nil
	}
	return c.download(ctx, f.Id)
}

// download fetches a regular file's raw content.
func (c *Connector) download(ctx context.Context, fileID string) (string, error) {
	resp, err := c.files.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("downloading file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize))
	if err != nil {
		return "", fmt.Errorf("reading file content: %w", err)
	}
	return string(data), nil
}

func isPlainText(mimeType string) bool {
	return strings.HasPrefix(mimeType, "text/") ||
		mimeType == "application/json" ||
		mimeType == "application/xml"
}

// parseDriveTime parses Drive's RFC 3339 timestamps, zero on failure.
func parseDriveTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
