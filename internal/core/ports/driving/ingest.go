package driving

import (
	"context"

	"github.com/verseline/verseline/internal/core/domain"
)

// IngestOrchestrator coordinates lyric ingestion for a user's library.
type IngestOrchestrator interface {
	// Sync ingests the user's saved tracks: fetch, clean, chunk, embed
	// and index lyrics for every track not yet in the manifest. Per-track
	// errors are swallowed and surfaced only in the aggregate counts.
	// Returns domain.ErrSyncInProgress if a sync for the user is running.
	Sync(ctx context.Context, userID string) (*domain.SyncState, error)

	// Status returns a snapshot of the running sync for the user. When no
	// sync is in flight it reports the last recorded outcome, if any.
	Status(ctx context.Context, userID string) (*SyncStatus, error)
}

// SyncStatus reports sync progress.
type SyncStatus struct {
	UserID          string
	Running         bool
	TracksProcessed int
	TracksSkipped   int
	ErrorCount      int
}
