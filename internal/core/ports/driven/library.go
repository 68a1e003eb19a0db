package driven

import (
	"context"

	"github.com/verseline/verseline/internal/core/domain"
)

// MusicLibrary lists the tracks of a user's linked music account.
// Implementations validate provider records at the boundary and skip
// malformed entries rather than propagating untyped JSON downstream.
type MusicLibrary interface {
	// ListTracks returns the user's saved tracks.
	ListTracks(ctx context.Context, userID string) ([]domain.TrackRef, error)
}
