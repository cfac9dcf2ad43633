package chunk

import (
	"fmt"
	"strings"
	"testing"
)

// patternText returns n characters of a repeating alphabet so overlap
// regions can be compared by content.
func patternText(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(byte('a' + i%26))
	}
	return b.String()
}

func baseMeta(ct ContentType) Metadata {
	return Metadata{
		ContentType: ct,
		TenantID:    "tenant-1",
		SourceID:    "doc_42",
		Title:       "Test Document",
	}
}

func TestChunkGeneric(t *testing.T) {
	c := New(Config{MaxChunkSize: 1000, MinChunkSize: 100, Overlap: 200})

	t.Run("short text passes through as one chunk", func(t *testing.T) {
		chunks := c.Chunk("A short CMS entry.", baseMeta(TypeCMSContent))
		if len(chunks) != 1 {
			t.Fatalf("got %d chunks, want 1", len(chunks))
		}
		if chunks[0].ID != "doc_42_chunk_0" {
			t.Errorf("ID = %q, want doc_42_chunk_0", chunks[0].ID)
		}
		if chunks[0].Metadata.Section != "" {
			t.Errorf("Section = %q, want empty for whole-text chunk", chunks[0].Metadata.Section)
		}
	})

	t.Run("below min chunk size still indexed", func(t *testing.T) {
		chunks := c.Chunk("tiny", baseMeta(TypeCMSContent))
		if len(chunks) != 1 {
			t.Fatalf("got %d chunks, want 1", len(chunks))
		}
	})

	t.Run("empty content yields zero chunks", func(t *testing.T) {
		for _, in := range []string{"", "   ", "\n\n\t"} {
			if got := c.Chunk(in, baseMeta(TypeCMSContent)); len(got) != 0 {
				t.Errorf("Chunk(%q) = %d chunks, want 0", in, len(got))
			}
		}
	})

	t.Run("sliding window over 2500 characters", func(t *testing.T) {
		// No sentence breaks, so windows fall at exact offsets:
		// [0,1000), [800,1800), [1600,2500).
		text := patternText(2500)
		chunks := c.Chunk(text, baseMeta(TypeCMSContent))
		if len(chunks) != 3 {
			t.Fatalf("got %d chunks, want 3", len(chunks))
		}

		wantBounds := [][2]int{{0, 1000}, {800, 1800}, {1600, 2500}}
		for i, wb := range wantBounds {
			want := text[wb[0]:wb[1]]
			if chunks[i].Content != want {
				t.Errorf("chunk %d = text[%d:%d]? got len %d, want len %d",
					i, wb[0], wb[1], len(chunks[i].Content), len(want))
			}
			wantID := fmt.Sprintf("doc_42_chunk_%d", i)
			if chunks[i].ID != wantID {
				t.Errorf("chunk %d ID = %q, want %q", i, chunks[i].ID, wantID)
			}
			wantSection := fmt.Sprintf("chunk_%d", i)
			if chunks[i].Metadata.Section != wantSection {
				t.Errorf("chunk %d Section = %q, want %q", i, chunks[i].Metadata.Section, wantSection)
			}
		}

		// Neighbouring chunks share the overlap region.
		if !strings.HasSuffix(chunks[0].Content, chunks[1].Content[:200]) {
			t.Error("chunk 0 does not end with chunk 1's first 200 characters")
		}
		if !strings.HasSuffix(chunks[1].Content, chunks[2].Content[:200]) {
			t.Error("chunk 1 does not end with chunk 2's first 200 characters")
		}
	})

	t.Run("window end snaps to sentence break", func(t *testing.T) {
		// A period at offset 949 sits inside the trailing overlap region
		// [800, 1000), so the first window should end just after it.
		text := patternText(949) + "." + patternText(150)
		chunks := c.Chunk(text, baseMeta(TypeCMSContent))
		if len(chunks) != 2 {
			t.Fatalf("got %d chunks, want 2", len(chunks))
		}
		if !strings.HasSuffix(chunks[0].Content, ".") {
			t.Errorf("chunk 0 ends with %q, want sentence break", chunks[0].Content[len(chunks[0].Content)-5:])
		}
		if len(chunks[0].Content) != 950 {
			t.Errorf("chunk 0 length = %d, want 950", len(chunks[0].Content))
		}
	})

	t.Run("every chunk respects the max size", func(t *testing.T) {
		text := patternText(10_000)
		for _, ch := range c.Chunk(text, baseMeta(TypeUserProfile)) {
			if len(ch.Content) > 1000 {
				t.Errorf("chunk %s has %d characters, max is 1000", ch.ID, len(ch.Content))
			}
			if len(ch.Content) < 100 {
				t.Errorf("chunk %s has %d characters, min is 100", ch.ID, len(ch.Content))
			}
		}
	})
}

func TestChunkForumPost(t *testing.T) {
	c := New(Config{MaxChunkSize: 1000, MinChunkSize: 100, Overlap: 200})
	meta := baseMeta(TypeForumPost)
	meta.SourceID = "forum_7"

	t.Run("post within threshold stays whole", func(t *testing.T) {
		// 1200 characters is over MaxChunkSize but under 1.5x.
		chunks := c.Chunk(patternText(1200), meta)
		if len(chunks) != 1 {
			t.Fatalf("got %d chunks, want 1", len(chunks))
		}
		if chunks[0].ID != "forum_7_post" {
			t.Errorf("ID = %q, want forum_7_post", chunks[0].ID)
		}
		if len(chunks[0].Content) != 1200 {
			t.Errorf("content length = %d, want 1200 (unsplit)", len(chunks[0].Content))
		}
	})

	t.Run("long post falls back to the window", func(t *testing.T) {
		chunks := c.Chunk(patternText(2000), meta)
		if len(chunks) < 2 {
			t.Fatalf("got %d chunks, want several", len(chunks))
		}
		for _, ch := range chunks {
			if !strings.HasPrefix(ch.ID, "forum_7_chunk_") {
				t.Errorf("ID = %q, want forum_7_chunk_ prefix", ch.ID)
			}
		}
	})
}

func TestChunkDocumentation(t *testing.T) {
	c := New(Config{MaxChunkSize: 1000, MinChunkSize: 100, Overlap: 200})
	meta := baseMeta(TypeDocumentation)

	t.Run("splits on headings", func(t *testing.T) {
		text := "# Installation\nInstall the binary and run it once to create the config.\n" +
			"## Configuration\nEdit the generated file and set the database password.\n" +
			"# Usage\nRun the index command nightly from cron."
		chunks := c.Chunk(text, meta)
		if len(chunks) != 3 {
			t.Fatalf("got %d chunks, want 3 sections", len(chunks))
		}
		for i, ch := range chunks {
			wantSection := fmt.Sprintf("section_%d", i)
			if ch.Metadata.Section != wantSection {
				t.Errorf("chunk %d Section = %q, want %q", i, ch.Metadata.Section, wantSection)
			}
			wantID := fmt.Sprintf("doc_42_chunk_%d", i)
			if ch.ID != wantID {
				t.Errorf("chunk %d ID = %q, want %q", i, ch.ID, wantID)
			}
		}
		if !strings.HasPrefix(chunks[2].Content, "# Usage") {
			t.Errorf("last section = %q, want it to start at # Usage", chunks[2].Content)
		}
	})

	t.Run("sections share one id sequence", func(t *testing.T) {
		// First section needs two window chunks, so the second section's
		// chunk must continue the numbering rather than restart it.
		text := "# Long Section\n" + patternText(1500) + "\n# Short Section\nA brief closing note."
		chunks := c.Chunk(text, meta)
		if len(chunks) < 3 {
			t.Fatalf("got %d chunks, want at least 3", len(chunks))
		}
		last := chunks[len(chunks)-1]
		wantID := fmt.Sprintf("doc_42_chunk_%d", len(chunks)-1)
		if last.ID != wantID {
			t.Errorf("last chunk ID = %q, want %q", last.ID, wantID)
		}
	})

	t.Run("no headings falls back to generic", func(t *testing.T) {
		chunks := c.Chunk("Plain documentation without any headings.", meta)
		if len(chunks) != 1 {
			t.Fatalf("got %d chunks, want 1", len(chunks))
		}
		if chunks[0].Metadata.Section != "" {
			t.Errorf("Section = %q, want empty", chunks[0].Metadata.Section)
		}
	})
}

func TestSplitSections(t *testing.T) {
	t.Run("preamble becomes its own section", func(t *testing.T) {
		got := splitSections("intro text\n# First\nbody\n## Second\nmore")
		if len(got) != 3 {
			t.Fatalf("got %d sections, want 3: %q", len(got), got)
		}
		if got[0] != "intro text" {
			t.Errorf("section 0 = %q, want preamble", got[0])
		}
	})

	t.Run("no headings returns whole text", func(t *testing.T) {
		got := splitSections("just text")
		if len(got) != 1 || got[0] != "just text" {
			t.Errorf("got %q, want [just text]", got)
		}
	})
}

func TestContentTypeValid(t *testing.T) {
	for _, ct := range []ContentType{
		TypeDocumentation, TypeCMSContent, TypeForumPost,
		TypeProduct, TypeUserProfile, TypeGoogleDrive,
	} {
		if !ct.Valid() {
			t.Errorf("ContentType(%q).Valid() = false", ct)
		}
	}
	if ContentType("blog_post").Valid() {
		t.Error("unknown content type reported valid")
	}
}
