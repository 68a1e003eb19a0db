package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verseline/verseline/internal/adapters/driven/vector/memory"
	"github.com/verseline/verseline/internal/cleaner"
	"github.com/verseline/verseline/internal/core/domain"
	"github.com/verseline/verseline/internal/ratelimit"
)

const vivaRaw = "22 ContributorsViva La Vida Lyrics\n[Chorus]\nI used to rule the world\n(Oh oh oh)\nSeas would rise when I gave the word\nNow in the morning I sleep alone\nSweep the streets I used to own"

func fastLimiter() *ratelimit.Limiter {
	return ratelimit.NewWithConfig(ratelimit.Config{RequestsPerSecond: 10000, BurstSize: 1000})
}

func newTestIngest(
	library *fakeLibrary, source *fakeSource, embedder *fakeEmbedder,
) (*IngestService, *memory.Index, *fakeLyricStore) {
	index := memory.New()
	store := newFakeLyricStore()
	svc := NewIngestService(
		library, source, cleaner.New(cleaner.NewConfig(nil)),
		embedder, index, store, nil,
	)
	svc.SetLimiters(fastLimiter(), fastLimiter())
	return svc, index, store
}

func TestSync_IngestsTrack(t *testing.T) {
	library := &fakeLibrary{tracks: []domain.TrackRef{
		{ProviderTrackID: "t1", Title: "Viva La Vida", Artist: "Coldplay"},
	}}
	source := &fakeSource{lyrics: map[string]string{"Viva La Vida": vivaRaw}}
	svc, index, store := newTestIngest(library, source, &fakeEmbedder{})

	state, err := svc.Sync(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Processed)
	assert.Equal(t, 0, state.Failed)

	// Four content lines remain after cleaning.
	assert.Equal(t, 4, index.Len("u1"))

	doc, err := store.Get(context.Background(), "u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "I used to rule the world\nSeas would rise when I gave the word\nNow in the morning I sleep alone\nSweep the streets I used to own", doc.CleanedText)
}

func TestSync_IdempotentReRun(t *testing.T) {
	library := &fakeLibrary{tracks: []domain.TrackRef{
		{ProviderTrackID: "t1", Title: "Viva La Vida", Artist: "Coldplay"},
	}}
	source := &fakeSource{lyrics: map[string]string{"Viva La Vida": vivaRaw}}
	svc, index, _ := newTestIngest(library, source, &fakeEmbedder{})

	_, err := svc.Sync(context.Background(), "u1")
	require.NoError(t, err)
	firstLen := index.Len("u1")
	firstCalls := source.fetchCount()

	state, err := svc.Sync(context.Background(), "u1")
	require.NoError(t, err)

	// Second run skips via the manifest: no new fetches, same records.
	assert.Equal(t, 1, state.Skipped)
	assert.Equal(t, 0, state.Processed)
	assert.Equal(t, firstCalls, source.fetchCount())
	assert.Equal(t, firstLen, index.Len("u1"))
}

func TestSync_ReIngestDropsStaleChunks(t *testing.T) {
	library := &fakeLibrary{tracks: []domain.TrackRef{
		{ProviderTrackID: "t1", Title: "Viva La Vida", Artist: "Coldplay"},
	}}
	source := &fakeSource{lyrics: map[string]string{"Viva La Vida": vivaRaw}}
	svc, index, store := newTestIngest(library, source, &fakeEmbedder{})

	_, err := svc.Sync(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 4, index.Len("u1"))

	// The provider now returns a shorter version; force a re-ingest by
	// clearing the manifest entry.
	source.lyrics["Viva La Vida"] = "Viva La Vida Lyrics\nI used to rule the world\nSeas would rise when I gave the word\nNow in the morning I sleep alone"
	store.remove("u1", "t1")

	_, err = svc.Sync(context.Background(), "u1")
	require.NoError(t, err)

	// No stale trailing chunk from the 4-line version survives.
	assert.Equal(t, 3, index.Len("u1"))
}

func TestSync_ContinuesPastMisses(t *testing.T) {
	library := &fakeLibrary{tracks: []domain.TrackRef{
		{ProviderTrackID: "t1", Title: "Unknown Song", Artist: "Nobody"},
		{ProviderTrackID: "t2", Title: "Viva La Vida", Artist: "Coldplay"},
	}}
	source := &fakeSource{lyrics: map[string]string{"Viva La Vida": vivaRaw}}
	svc, index, _ := newTestIngest(library, source, &fakeEmbedder{})

	state, err := svc.Sync(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Processed)
	assert.Equal(t, 1, state.Failed)
	assert.Equal(t, 4, index.Len("u1"))
}

func TestSync_RejectsInstrumental(t *testing.T) {
	library := &fakeLibrary{tracks: []domain.TrackRef{
		{ProviderTrackID: "t1", Title: "Intermission", Artist: "Band"},
	}}
	source := &fakeSource{lyrics: map[string]string{"Intermission": "header\nThis piece is instrumental\nNo vocals here"}}
	svc, index, store := newTestIngest(library, source, &fakeEmbedder{})

	state, err := svc.Sync(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Failed)
	assert.Equal(t, 0, index.Len("u1"))

	_, err = store.Get(context.Background(), "u1", "t1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSync_ProfaneTitleSkipsFetch(t *testing.T) {
	library := &fakeLibrary{tracks: []domain.TrackRef{
		{ProviderTrackID: "t1", Title: "Fucking Perfect", Artist: "P!nk"},
	}}
	source := &fakeSource{lyrics: map[string]string{}}
	svc, _, _ := newTestIngest(library, source, &fakeEmbedder{})

	state, err := svc.Sync(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Failed)

	// The rejection happens before any provider call.
	assert.Equal(t, 0, source.fetchCount())
}

func TestSync_TooFewLinesRejected(t *testing.T) {
	library := &fakeLibrary{tracks: []domain.TrackRef{
		{ProviderTrackID: "t1", Title: "Short Song", Artist: "Band"},
	}}
	source := &fakeSource{lyrics: map[string]string{"Short Song": "Short Song Lyrics\nShort song line one\nShort song line two"}}
	svc, index, _ := newTestIngest(library, source, &fakeEmbedder{})

	state, err := svc.Sync(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Failed)
	assert.Equal(t, 0, index.Len("u1"))
}

func TestSync_EmbeddingFailureSkipsChunkOnly(t *testing.T) {
	library := &fakeLibrary{tracks: []domain.TrackRef{
		{ProviderTrackID: "t1", Title: "Viva La Vida", Artist: "Coldplay"},
	}}
	source := &fakeSource{lyrics: map[string]string{"Viva La Vida": vivaRaw}}
	embedder := &fakeEmbedder{fail: map[string]bool{"Now in the morning I sleep alone": true}}
	svc, index, _ := newTestIngest(library, source, embedder)

	state, err := svc.Sync(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Processed)

	// The failing chunk is dropped; the rest of the track is indexed and
	// surviving ids keep their original positions.
	assert.Equal(t, 3, index.Len("u1"))
	hits, err := index.Query(context.Background(), "u1", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.Record.ID)
	}
	assert.ElementsMatch(t, []string{"t1_0", "t1_1", "t1_3"}, ids)
}

func TestSync_SourceRateLimitTriggersBackoff(t *testing.T) {
	library := &fakeLibrary{tracks: []domain.TrackRef{
		{ProviderTrackID: "t1", Title: "Viva La Vida", Artist: "Coldplay"},
	}}
	source := &fakeSource{err: &domain.RateLimitedError{Provider: "genius", RetryAfter: 120}}
	svc, index, _ := newTestIngest(library, source, &fakeEmbedder{})

	state, err := svc.Sync(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Failed)
	assert.Equal(t, 0, index.Len("u1"))

	// The 429 lands on the source limiter only; the next fetch would
	// wait out the advertised delay.
	assert.False(t, svc.sourceLimiter.Allow())
	assert.True(t, svc.embedLimiter.Allow())
}

func TestSync_EmbeddingRateLimitTriggersBackoff(t *testing.T) {
	library := &fakeLibrary{tracks: []domain.TrackRef{
		{ProviderTrackID: "t1", Title: "Viva La Vida", Artist: "Coldplay"},
	}}
	source := &fakeSource{lyrics: map[string]string{"Viva La Vida": vivaRaw}}
	embedder := &fakeEmbedder{
		fail:    map[string]bool{"Sweep the streets I used to own": true},
		failErr: &domain.RateLimitedError{Provider: "openai", RetryAfter: 60},
	}
	svc, index, _ := newTestIngest(library, source, embedder)

	state, err := svc.Sync(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Processed)
	assert.Equal(t, 3, index.Len("u1"))

	assert.False(t, svc.embedLimiter.Allow())
	assert.True(t, svc.sourceLimiter.Allow())
}

func TestSync_ConcurrentSameUserRejected(t *testing.T) {
	library := &fakeLibrary{tracks: []domain.TrackRef{
		{ProviderTrackID: "t1", Title: "Viva La Vida", Artist: "Coldplay"},
	}}
	source := &fakeSource{
		lyrics:  map[string]string{"Viva La Vida": vivaRaw},
		release: make(chan struct{}),
	}
	svc, _, _ := newTestIngest(library, source, &fakeEmbedder{})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Sync(context.Background(), "u1")
		done <- err
	}()

	require.Eventually(t, func() bool {
		st, err := svc.Status(context.Background(), "u1")
		return err == nil && st.Running
	}, time.Second, 5*time.Millisecond)

	_, err := svc.Sync(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrSyncInProgress)

	close(source.release)
	require.NoError(t, <-done)

	// Released after completion.
	st, err := svc.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, st.Running)
}

func TestSync_Cancellation(t *testing.T) {
	library := &fakeLibrary{tracks: []domain.TrackRef{
		{ProviderTrackID: "t1", Title: "Viva La Vida", Artist: "Coldplay"},
	}}
	source := &fakeSource{lyrics: map[string]string{"Viva La Vida": vivaRaw}}
	svc, _, _ := newTestIngest(library, source, &fakeEmbedder{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Sync(ctx, "u1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSync_EmptyUserID(t *testing.T) {
	svc, _, _ := newTestIngest(&fakeLibrary{}, &fakeSource{}, &fakeEmbedder{})

	_, err := svc.Sync(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
