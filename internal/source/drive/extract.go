package drive

import (
	"strings"

	"google.golang.org/api/docs/v1"
)

// FlattenDocument converts a Google Doc's structured body to plain text.
// Paragraph text runs are concatenated in document order; table cells are
// walked recursively and joined with single spaces so row content stays on
// one line.
func FlattenDocument(doc *docs.Document) string {
	if doc == nil || doc.Body == nil {
		return ""
	}
	var b strings.Builder
	flattenElements(&b, doc.Body.Content)
	return strings.TrimSpace(b.String())
}

func flattenElements(b *strings.Builder, elements []*docs.StructuralElement) {
	for _, el := range elements {
		switch {
		case el.Paragraph != nil:
			flattenParagraph(b, el.Paragraph)
		case el.Table != nil:
			flattenTable(b, el.Table)
		}
	}
}

func flattenParagraph(b *strings.Builder, p *docs.Paragraph) {
	for _, el := range p.Elements {
		if el.TextRun != nil {
			b.WriteString(el.TextRun.Content)
		}
	}
}

// flattenTable writes each row as a single space-joined line. Nested tables
// are flattened in place.
func flattenTable(b *strings.Builder, t *docs.Table) {
	for _, row := range t.TableRows {
		var cells []string
		for _, cell := range row.TableCells {
			var cb strings.Builder
			flattenElements(&cb, cell.Content)
			if text := strings.TrimSpace(cb.String()); text != "" {
				cells = append(cells, text)
			}
		}
		if len(cells) > 0 {
			b.WriteString(strings.Join(cells, " "))
			b.WriteString("\n")
		}
	}
}
