package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verseline/verseline/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveTrack_AndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTrack(ctx, "user-1", domain.TrackRef{
		ProviderTrackID: "track-1", Title: "Viva La Vida", Artist: "Coldplay",
	}))
	require.NoError(t, store.SaveTrack(ctx, "user-1", domain.TrackRef{
		ProviderTrackID: "track-2", Title: "Yellow", Artist: "Coldplay",
	}))
	require.NoError(t, store.SaveTrack(ctx, "user-2", domain.TrackRef{
		ProviderTrackID: "track-9", Title: "Halo", Artist: "Beyonce",
	}))

	tracks, err := store.ListTracks(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "track-1", tracks[0].ProviderTrackID)
	assert.Equal(t, "Viva La Vida", tracks[0].Title)
}

func TestSaveTrack_UpsertsOnConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	track := domain.TrackRef{ProviderTrackID: "track-1", Title: "Old Title", Artist: "Coldplay"}
	require.NoError(t, store.SaveTrack(ctx, "user-1", track))

	track.Title = "Viva La Vida"
	require.NoError(t, store.SaveTrack(ctx, "user-1", track))

	tracks, err := store.ListTracks(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Viva La Vida", tracks[0].Title)
}

func TestSaveTrack_RequiresIDs(t *testing.T) {
	store := newTestStore(t)

	err := store.SaveTrack(context.Background(), "", domain.TrackRef{ProviderTrackID: "t"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = store.SaveTrack(context.Background(), "user-1", domain.TrackRef{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSyncState_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	state := domain.SyncState{
		UserID:    "user-1",
		LastSync:  time.Now().UTC().Truncate(time.Second),
		Processed: 12,
		Skipped:   3,
		Failed:    1,
	}
	require.NoError(t, store.SaveSyncState(ctx, state))

	got, err := store.GetSyncState(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 12, got.Processed)
	assert.Equal(t, 3, got.Skipped)
	assert.Equal(t, 1, got.Failed)
	assert.WithinDuration(t, state.LastSync, got.LastSync, time.Second)
}

func TestSyncState_OverwritesPrevious(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSyncState(ctx, domain.SyncState{UserID: "user-1", Processed: 5}))
	require.NoError(t, store.SaveSyncState(ctx, domain.SyncState{UserID: "user-1", Processed: 8, Skipped: 5}))

	got, err := store.GetSyncState(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 8, got.Processed)
	assert.Equal(t, 5, got.Skipped)
}

func TestGetSyncState_MissingIsNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetSyncState(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
