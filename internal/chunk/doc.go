// Package chunk defines the indexed content model and splits source text
// into bounded, overlapping chunks.
//
// # Data model
//
// ContentChunk is the unit of embedding and retrieval: a span of normalized
// text plus Metadata identifying its tenant, source item, and content type.
// Chunk ids are deterministic ("{source_id}_chunk_{n}", "{source_id}_post"),
// which makes re-indexing idempotent: the indexer deletes everything stored
// under a (tenant, source) key and re-inserts, and identical input produces
// the identical id set.
//
// # Splitting strategies
//
// The Chunker picks a strategy from the chunk's content type:
//
//   - generic: sliding window of MaxChunkSize characters with Overlap
//     characters shared between neighbours. Window ends snap backward to
//     sentence terminators or newlines inside the trailing overlap region;
//     trailing pieces shorter than MinChunkSize are dropped.
//   - documentation: split on markdown heading lines first, then apply the
//     generic window per section with "section_{i}" metadata.
//   - forum_post: posts up to 1.5x MaxChunkSize stay whole ("_post" id);
//     longer posts fall back to the generic window.
//
// Normalization (HTML stripping, whitespace collapsing) happens before
// splitting and preserves line breaks, which both the heading splitter and
// boundary snapping rely on.
package chunk
