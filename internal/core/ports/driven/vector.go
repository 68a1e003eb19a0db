package driven

import (
	"context"

	"github.com/verseline/verseline/internal/core/domain"
)

// VectorIndex stores and queries lyric chunk embeddings.
//
// Records carry an owner user id; Query is always restricted to one
// user's namespace so a user only ever retrieves their own lyrics.
type VectorIndex interface {
	// Upsert writes the given records, overwriting any with the same ID.
	// All chunks of one track are batched into a single call.
	Upsert(ctx context.Context, records []domain.VectorRecord) error

	// DeleteByPrefix removes every record in the user's namespace whose
	// ID starts with prefix. Used to drop stale trailing chunks before
	// re-ingesting a track with a different line count.
	DeleteByPrefix(ctx context.Context, userID, prefix string) error

	// Query returns the topK nearest records in the user's namespace,
	// most similar first. An empty result is not an error.
	Query(ctx context.Context, userID string, vector []float32, topK int) ([]domain.Candidate, error)
}
