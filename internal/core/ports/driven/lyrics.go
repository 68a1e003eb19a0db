package driven

import "context"

// LyricsSource retrieves raw lyric text for a track from an external
// lyrics provider and resolves ambiguity among search results.
//
// FetchLyrics returns domain.ErrNotFound for every non-fatal miss:
// provider search failure, zero hits, sanity-check rejection and
// content-fetch failure. Batch ingestion continues past any single track.
type LyricsSource interface {
	// FetchLyrics returns the raw lyric text for (title, artist).
	// Both inputs must be non-empty.
	FetchLyrics(ctx context.Context, title, artist string) (string, error)

	// Name returns the provider identifier for logging.
	Name() string
}
