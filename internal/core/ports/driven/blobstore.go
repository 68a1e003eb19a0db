package driven

import (
	"context"

	"github.com/verseline/verseline/internal/core/domain"
)

// LyricStore persists cleaned lyric documents as per-user blobs keyed by
// track id. The listing doubles as the ingestion manifest: a track whose
// blob exists is considered already ingested and is skipped on re-sync.
//
// A track's blob must only be written after its vector upserts complete,
// so a skip-on-retry can never hide partial index data.
type LyricStore interface {
	// Put writes (or overwrites) the lyric document blob.
	Put(ctx context.Context, doc domain.LyricDocument) error

	// Get returns the stored document, or domain.ErrNotFound.
	Get(ctx context.Context, userID, trackID string) (*domain.LyricDocument, error)

	// ListTrackIDs returns the ids of all tracks stored for the user.
	ListTrackIDs(ctx context.Context, userID string) ([]string, error)
}
