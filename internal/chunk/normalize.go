package chunk

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Pre-compiled patterns for text normalization.
var (
	// htmlTag detects markup worth stripping. Matched against the raw text
	// so plain-text content skips the HTML parser entirely.
	htmlTag = regexp.MustCompile(`<[a-zA-Z!/][^>]*>`)

	// blockBoundary marks tags whose end implies a line break, so that
	// "<p>a</p><p>b</p>" does not collapse into "ab" after stripping.
	blockBoundary = regexp.MustCompile(`(?i)<(?:br\s*/?|/p|/div|/li|/tr|/h[1-6]|/blockquote|/pre)>`)

	scriptBlock = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleBlock  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)

	horizontalSpace = regexp.MustCompile(`[^\S\n]+`)
	spacedNewline   = regexp.MustCompile(` ?\n ?`)
	manyNewlines    = regexp.MustCompile(`\n{3,}`)
)

// Normalize prepares raw source text for chunking: HTML tags are stripped,
// runs of horizontal whitespace collapse to single spaces, and blank-line
// runs collapse to one blank line. Newlines are preserved because the
// chunker snaps window boundaries to them and the documentation strategy
// splits on heading lines.
func Normalize(text string) string {
	if htmlTag.MatchString(text) {
		text = stripHTML(text)
	}

	text = horizontalSpace.ReplaceAllString(text, " ")
	text = spacedNewline.ReplaceAllString(text, "\n")
	text = manyNewlines.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// stripHTML extracts readable text from markup. Block-level closing tags are
// rewritten to newlines first so document structure survives as line breaks.
func stripHTML(text string) string {
	text = scriptBlock.ReplaceAllString(text, "")
	text = styleBlock.ReplaceAllString(text, "")
	text = blockBoundary.ReplaceAllString(text, "\n")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		// Malformed beyond parsing: fall back to dropping tag-shaped runs.
		return htmlTag.ReplaceAllString(text, " ")
	}

	return doc.Text()
}
