package chunk

import (
	"fmt"
	"regexp"
	"strings"
)

// Default splitting bounds. A window of DefaultMaxChunkSize characters slides
// over the text with DefaultOverlap characters shared between neighbours;
// trailing pieces shorter than DefaultMinChunkSize are dropped.
const (
	DefaultMaxChunkSize = 1000
	DefaultMinChunkSize = 100
	DefaultOverlap      = 200
)

// wholePostFactor is the multiple of MaxChunkSize below which a forum post
// is kept as a single chunk to preserve conversational coherence.
const wholePostFactor = 1.5

// headingLine matches markdown-style heading starts used by the
// documentation splitter.
var headingLine = regexp.MustCompile(`(?m)^#{1,6}\s`)

// Config holds the splitting bounds for a Chunker.
//
// MinChunkSize < MaxChunkSize-Overlap is a validated configuration
// precondition (see config.Validate); the splitting loop assumes it.
type Config struct {
	MaxChunkSize int
	MinChunkSize int
	Overlap      int
}

// DefaultConfig returns the default splitting bounds.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize: DefaultMaxChunkSize,
		MinChunkSize: DefaultMinChunkSize,
		Overlap:      DefaultOverlap,
	}
}

// Chunker splits normalized source text into bounded, overlapping chunks
// with a content-type-aware strategy. It is stateless and safe for
// concurrent use.
type Chunker struct {
	cfg Config
}

// New creates a Chunker. Zero-valued fields of cfg fall back to the defaults.
func New(cfg Config) *Chunker {
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = DefaultMaxChunkSize
	}
	if cfg.MinChunkSize <= 0 {
		cfg.MinChunkSize = DefaultMinChunkSize
	}
	if cfg.Overlap <= 0 {
		cfg.Overlap = DefaultOverlap
	}
	return &Chunker{cfg: cfg}
}

// Chunk splits text into chunks using the strategy for base.ContentType:
// documentation splits on heading sections first, forum posts below the
// whole-post threshold pass through unsplit, everything else uses the
// generic sliding window. Returned chunks carry no embedding.
//
// Empty content (after normalization) yields zero chunks; callers treat
// that as a clean no-op, not an error.
func (c *Chunker) Chunk(text string, base Metadata) []ContentChunk {
	switch base.ContentType {
	case TypeDocumentation:
		return c.chunkDocumentation(text, base)
	case TypeForumPost:
		return c.chunkForumPost(text, base)
	default:
		return c.chunkGeneric(text, base)
	}
}

// chunkGeneric normalizes and applies the sliding window.
func (c *Chunker) chunkGeneric(text string, base Metadata) []ContentChunk {
	norm := Normalize(text)
	if norm == "" {
		return nil
	}
	chunks, _ := c.slide(norm, base, "", 0)
	return chunks
}

// chunkDocumentation splits the document on heading lines and chunks each
// section independently, tagging chunks with "section_{i}". Documents
// without headings fall back to the generic strategy.
func (c *Chunker) chunkDocumentation(text string, base Metadata) []ContentChunk {
	norm := Normalize(text)
	if norm == "" {
		return nil
	}

	sections := splitSections(norm)
	if len(sections) <= 1 {
		chunks, _ := c.slide(norm, base, "", 0)
		return chunks
	}

	var chunks []ContentChunk
	next := 0
	for i, section := range sections {
		var sectionChunks []ContentChunk
		sectionChunks, next = c.slide(section, base, fmt.Sprintf("section_%d", i), next)
		chunks = append(chunks, sectionChunks...)
	}
	return chunks
}

// chunkForumPost keeps posts up to wholePostFactor*MaxChunkSize as a single
// chunk with the "_post" id suffix; longer posts fall back to the generic
// window.
func (c *Chunker) chunkForumPost(text string, base Metadata) []ContentChunk {
	norm := Normalize(text)
	if norm == "" {
		return nil
	}

	if float64(len(norm)) <= wholePostFactor*float64(c.cfg.MaxChunkSize) {
		return []ContentChunk{{
			ID:       base.SourceID + "_post",
			Content:  norm,
			Metadata: base,
		}}
	}

	chunks, _ := c.slide(norm, base, "", 0)
	return chunks
}

// slide emits chunks for text, numbering them from firstIndex, and returns
// the next unused index so documentation sections share one id sequence.
//
// Window ends snap backward to the last sentence terminator or newline
// inside the trailing overlap region, so boundaries prefer sentence breaks
// without ever retreating past start+MinChunkSize. Because snapping is
// confined to that region, the fixed advance of MaxChunkSize-Overlap never
// skips text and always makes forward progress.
func (c *Chunker) slide(text string, base Metadata, sectionLabel string, firstIndex int) ([]ContentChunk, int) {
	idx := firstIndex

	// Whole-text passthrough, including texts shorter than MinChunkSize.
	if len(text) <= c.cfg.MaxChunkSize {
		meta := base
		meta.Section = sectionLabel
		return []ContentChunk{{
			ID:       fmt.Sprintf("%s_chunk_%d", base.SourceID, idx),
			Content:  text,
			Metadata: meta,
		}}, idx + 1
	}

	var chunks []ContentChunk
	start := 0
	for start < len(text) {
		end := start + c.cfg.MaxChunkSize
		last := end >= len(text)
		if last {
			end = len(text)
		} else {
			end = snapToBreak(text, start, end, c.cfg)
		}

		piece := strings.TrimSpace(text[start:end])
		if len(piece) >= c.cfg.MinChunkSize {
			meta := base
			meta.Section = sectionLabel
			if meta.Section == "" {
				meta.Section = fmt.Sprintf("chunk_%d", idx)
			}
			chunks = append(chunks, ContentChunk{
				ID:       fmt.Sprintf("%s_chunk_%d", base.SourceID, idx),
				Content:  piece,
				Metadata: meta,
			})
			idx++
		}

		if last {
			break
		}

		next := start + c.cfg.MaxChunkSize - c.cfg.Overlap
		if next <= start {
			// Pathological bounds; jump to the window end rather than stall.
			next = end
		}
		start = next
	}

	return chunks, idx
}

// snapToBreak searches backward from end for the last '.' or '\n' within
// the trailing overlap region and moves the window end to just after it.
// The break must also lie beyond start+MinChunkSize.
func snapToBreak(text string, start, end int, cfg Config) int {
	lo := end - cfg.Overlap
	if min := start + cfg.MinChunkSize; lo < min {
		lo = min
	}
	for i := end - 1; i >= lo; i-- {
		if text[i] == '.' || text[i] == '\n' {
			return i + 1
		}
	}
	return end
}

// splitSections splits normalized text into heading-delimited sections.
// Text before the first heading forms its own section.
func splitSections(text string) []string {
	starts := headingLine.FindAllStringIndex(text, -1)
	if len(starts) == 0 {
		return []string{text}
	}

	var sections []string
	prev := 0
	for _, loc := range starts {
		if loc[0] > prev {
			if s := strings.TrimSpace(text[prev:loc[0]]); s != "" {
				sections = append(sections, s)
			}
		}
		prev = loc[0]
	}
	if s := strings.TrimSpace(text[prev:]); s != "" {
		sections = append(sections, s)
	}
	return sections
}
