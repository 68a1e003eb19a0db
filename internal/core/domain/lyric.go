package domain

import "fmt"

// VectorRecord is one indexable lyric chunk: a single non-empty line of a
// cleaned lyric document together with its embedding and provenance metadata.
// Chunk IDs are derived, not generated, so re-ingesting a track overwrites
// the same records (idempotent upsert).
type VectorRecord struct {
	// ID is "{providerTrackID}_{index}".
	ID string

	// OwnerUserID scopes the record to one user's namespace.
	OwnerUserID string

	// TrackID is the provider track identifier.
	TrackID string

	// Track is the track title, carried as metadata for provenance.
	Track string

	// Artist is the primary artist name, carried as metadata.
	Artist string

	// Text is the lyric line.
	Text string

	// Embedding is the vector representation of Text.
	Embedding []float32
}

// ChunkID derives the deterministic vector id for a track chunk.
func ChunkID(trackID string, index int) string {
	return fmt.Sprintf("%s_%d", trackID, index)
}

// Candidate is a vector record returned by a similarity query, annotated
// with its score. Request-scoped; never persisted.
type Candidate struct {
	Record VectorRecord
	Score  float64
}

// Selection is a chosen lyric line with provenance. Request-scoped.
type Selection struct {
	// Text is the original candidate line, byte-identical to the stored chunk.
	Text string

	// Track is the source track title.
	Track string

	// Artist is the source artist.
	Artist string
}
