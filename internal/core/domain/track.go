package domain

import "time"

// TrackRef identifies a song within a user's music library.
// It is immutable once created; ProviderTrackID is the dedup key.
type TrackRef struct {
	// ProviderTrackID is the library provider's stable track identifier.
	ProviderTrackID string

	// Title is the track title as reported by the library provider.
	Title string

	// Artist is the primary artist name.
	Artist string
}

// LyricDocument is the cleaned lyric text for one (user, track) pair.
// It is created by the cleaner during ingestion and overwritten on re-sync.
type LyricDocument struct {
	// ID is a generated document identifier.
	ID string

	// OwnerUserID is the user whose library sync produced this document.
	OwnerUserID string

	// Track is the source track.
	Track TrackRef

	// CleanedText is the lyric text after cleaning, newline separated.
	CleanedText string

	// IngestedAt is when the document was written.
	IngestedAt time.Time
}

// SyncState records the outcome of the most recent library sync for a user.
type SyncState struct {
	UserID   string
	LastSync time.Time

	// Processed is the number of tracks indexed during the last sync.
	Processed int

	// Skipped counts tracks already present in the manifest.
	Skipped int

	// Failed counts tracks that could not be ingested (lyrics not found,
	// rejected content, transport errors).
	Failed int
}
