package driven

import (
	"context"

	"github.com/verseline/verseline/internal/core/domain"
)

// CatalogueStore records which tracks have been ingested for which user
// and the outcome of the most recent sync. Backed by the local SQLite
// database; the blob-store listing remains the authoritative manifest.
type CatalogueStore interface {
	// SaveTrack records an ingested track for the user.
	SaveTrack(ctx context.Context, userID string, track domain.TrackRef) error

	// ListTracks returns the recorded tracks for the user.
	ListTracks(ctx context.Context, userID string) ([]domain.TrackRef, error)

	// SaveSyncState persists the outcome of a completed sync.
	SaveSyncState(ctx context.Context, state domain.SyncState) error

	// GetSyncState returns the last sync outcome, or domain.ErrNotFound.
	GetSyncState(ctx context.Context, userID string) (*domain.SyncState, error)
}
