package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verseline/verseline/internal/cleaner"
	"github.com/verseline/verseline/internal/core/domain"
	"github.com/verseline/verseline/internal/core/ports/driven"
	"github.com/verseline/verseline/internal/core/ports/driving"
	"github.com/verseline/verseline/internal/logger"
	"github.com/verseline/verseline/internal/ratelimit"
)

// Ensure IngestService implements the interface.
var _ driving.IngestOrchestrator = (*IngestService)(nil)

// callTimeout bounds each external call during ingestion. A timeout on a
// single track is treated like a miss, not a fatal error for the batch.
const callTimeout = 10 * time.Second

// IngestService coordinates per-user lyric ingestion: it lists the user's
// library, fetches and cleans lyrics, embeds line chunks and writes them
// to the user's vector namespace.
//
// Per-track failures are swallowed and surfaced only in the aggregate
// sync counts; one bad track never aborts a sync. Syncs for the same user
// are serialised in-process.
type IngestService struct {
	library   driven.MusicLibrary
	source    driven.LyricsSource
	cleaner   *cleaner.Cleaner
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	lyrics    driven.LyricStore
	catalogue driven.CatalogueStore

	sourceLimiter *ratelimit.Limiter
	embedLimiter  *ratelimit.Limiter

	mu          sync.RWMutex
	activeSyncs map[string]*driving.SyncStatus
}

// NewIngestService creates a new ingest service. The catalogue is
// optional; when nil, sync outcomes are not recorded locally.
func NewIngestService(
	library driven.MusicLibrary,
	source driven.LyricsSource,
	cl *cleaner.Cleaner,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	lyrics driven.LyricStore,
	catalogue driven.CatalogueStore,
) *IngestService {
	return &IngestService{
		library:       library,
		source:        source,
		cleaner:       cl,
		embedder:      embedder,
		index:         index,
		lyrics:        lyrics,
		catalogue:     catalogue,
		sourceLimiter: ratelimit.New(ratelimit.ProviderLyrics),
		embedLimiter:  ratelimit.New(ratelimit.ProviderEmbedding),
		activeSyncs:   make(map[string]*driving.SyncStatus),
	}
}

// SetLimiters overrides the default rate limiters. Used in tests and when
// the config carries custom provider rates.
func (s *IngestService) SetLimiters(source, embed *ratelimit.Limiter) {
	s.sourceLimiter = source
	s.embedLimiter = embed
}

// Sync ingests lyrics for every track of the user's library that is not
// already in the manifest.
func (s *IngestService) Sync(ctx context.Context, userID string) (*domain.SyncState, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", domain.ErrInvalidInput)
	}
	if s.library == nil {
		return nil, fmt.Errorf("music library not configured")
	}
	if s.source == nil {
		return nil, fmt.Errorf("lyrics source not configured")
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	if err := s.claimSync(userID); err != nil {
		return nil, err
	}
	defer s.releaseSync(userID)

	tracks, err := s.library.ListTracks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list library tracks: %w", err)
	}
	logger.Info("Sync for user %s: %d tracks in library", userID, len(tracks))

	manifest, err := s.loadManifest(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	state := domain.SyncState{UserID: userID}
	for _, track := range tracks {
		if ctx.Err() != nil {
			// Every completed track is independently idempotent, so an
			// interrupted sync leaves a resumable subset indexed.
			logger.Warn("Sync cancelled after %d tracks", state.Processed)
			return nil, ctx.Err()
		}

		if _, done := manifest[track.ProviderTrackID]; done {
			state.Skipped++
			s.advance(userID, func(st *driving.SyncStatus) { st.TracksSkipped++ })
			continue
		}

		if err := s.ingestTrack(ctx, userID, track); err != nil {
			state.Failed++
			s.advance(userID, func(st *driving.SyncStatus) { st.ErrorCount++ })
			if rejection, ok := domain.IsRejection(err); ok {
				logger.Info("Track %s rejected: %s", track.ProviderTrackID, rejection.Reason)
			} else if errors.Is(err, domain.ErrNotFound) {
				logger.Debug("No lyrics for %q by %q", track.Title, track.Artist)
			} else {
				logger.Warn("Track %s failed: %v", track.ProviderTrackID, err)
			}
			continue
		}

		state.Processed++
		s.advance(userID, func(st *driving.SyncStatus) { st.TracksProcessed++ })
	}

	state.LastSync = time.Now()
	if s.catalogue != nil {
		if err := s.catalogue.SaveSyncState(ctx, state); err != nil {
			logger.Warn("Save sync state: %v", err)
		}
	}

	logger.Info("Sync complete: %d indexed, %d skipped, %d failed",
		state.Processed, state.Skipped, state.Failed)
	return &state, nil
}

// Status returns sync progress for a user. When no sync is running it
// reports the last recorded outcome from the catalogue, if any.
func (s *IngestService) Status(ctx context.Context, userID string) (*driving.SyncStatus, error) {
	s.mu.RLock()
	if status, ok := s.activeSyncs[userID]; ok {
		// Return a copy to avoid race conditions.
		c := *status
		s.mu.RUnlock()
		return &c, nil
	}
	s.mu.RUnlock()

	if s.catalogue != nil {
		state, err := s.catalogue.GetSyncState(ctx, userID)
		if err == nil {
			return &driving.SyncStatus{
				UserID:          userID,
				Running:         false,
				TracksProcessed: state.Processed,
				TracksSkipped:   state.Skipped,
				ErrorCount:      state.Failed,
			}, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("load sync state: %w", err)
		}
	}
	return &driving.SyncStatus{UserID: userID, Running: false}, nil
}

// ingestTrack runs the full pipeline for one track: fetch, clean, chunk,
// embed, index, persist. The lyric blob is written only after the vector
// upsert succeeds, so the manifest never claims partially indexed data.
func (s *IngestService) ingestTrack(ctx context.Context, userID string, track domain.TrackRef) error {
	if track.ProviderTrackID == "" || track.Title == "" || track.Artist == "" {
		return fmt.Errorf("%w: incomplete track record", domain.ErrInvalidInput)
	}

	// Profane titles are rejected before spending a provider call.
	if s.cleaner.IsProfane(track.Title) {
		return domain.NewRejection(domain.RejectProfaneTitle, track.ProviderTrackID)
	}

	if err := s.sourceLimiter.Wait(ctx); err != nil {
		return err
	}
	raw, err := s.fetchLyrics(ctx, track)
	if err != nil {
		return err
	}

	cleaned, err := s.cleaner.Clean(raw, track.Title)
	if err != nil {
		if rejection, ok := domain.IsRejection(err); ok {
			rejection.TrackID = track.ProviderTrackID
		}
		return err
	}

	chunks := cleaner.SplitChunks(cleaned)
	if len(chunks) < cleaner.MinChunkLines {
		return domain.NewRejection(domain.RejectTooFewLines, track.ProviderTrackID)
	}

	records := s.embedChunks(ctx, userID, track, chunks)
	if len(records) == 0 {
		return fmt.Errorf("embed track %s: no chunks embedded", track.ProviderTrackID)
	}

	// Re-ingesting with fewer lines must not leave stale trailing chunks
	// from a longer prior version.
	prefix := track.ProviderTrackID + "_"
	if err := s.index.DeleteByPrefix(ctx, userID, prefix); err != nil {
		return fmt.Errorf("delete stale chunks: %w", err)
	}
	if err := s.index.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upsert chunks: %w", err)
	}

	doc := domain.LyricDocument{
		ID:          uuid.New().String(),
		OwnerUserID: userID,
		Track:       track,
		CleanedText: cleaned,
		IngestedAt:  time.Now(),
	}
	if err := s.lyrics.Put(ctx, doc); err != nil {
		return fmt.Errorf("store lyric document: %w", err)
	}

	if s.catalogue != nil {
		if err := s.catalogue.SaveTrack(ctx, userID, track); err != nil {
			logger.Warn("Catalogue write for %s: %v", track.ProviderTrackID, err)
		}
	}
	return nil
}

// fetchLyrics calls the lyrics source with a per-call timeout. A timeout
// is reported as a miss for this track only.
func (s *IngestService) fetchLyrics(ctx context.Context, track domain.TrackRef) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	raw, err := s.source.FetchLyrics(callCtx, track.Title, track.Artist)
	if err != nil {
		if rl, ok := domain.IsRateLimited(err); ok {
			s.sourceLimiter.RecordRateLimitError(rl.RetryAfter)
			return "", err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return raw, nil
}

// embedChunks embeds each chunk independently and sequentially. A failed
// chunk is logged and skipped; the remaining chunks of the track proceed.
// Record ids keep the original chunk positions so re-runs stay idempotent.
func (s *IngestService) embedChunks(
	ctx context.Context, userID string, track domain.TrackRef, chunks []string,
) []domain.VectorRecord {
	records := make([]domain.VectorRecord, 0, len(chunks))
	for i, text := range chunks {
		if err := s.embedLimiter.Wait(ctx); err != nil {
			logger.Warn("Embedding rate wait aborted: %v", err)
			break
		}

		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		vector, err := s.embedder.Embed(callCtx, text)
		cancel()
		if err != nil {
			if rl, ok := domain.IsRateLimited(err); ok {
				s.embedLimiter.RecordRateLimitError(rl.RetryAfter)
			}
			logger.Warn("Embed chunk %d of %s: %v", i, track.ProviderTrackID, err)
			continue
		}

		records = append(records, domain.VectorRecord{
			ID:          domain.ChunkID(track.ProviderTrackID, i),
			OwnerUserID: userID,
			TrackID:     track.ProviderTrackID,
			Track:       track.Title,
			Artist:      track.Artist,
			Text:        text,
			Embedding:   vector,
		})
	}
	return records
}

// loadManifest returns the set of track ids already ingested for the user.
func (s *IngestService) loadManifest(ctx context.Context, userID string) (map[string]struct{}, error) {
	ids, err := s.lyrics.ListTrackIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	manifest := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		manifest[id] = struct{}{}
	}
	return manifest, nil
}

// claimSync registers a running sync for the user, rejecting concurrent
// syncs for the same namespace.
func (s *IngestService) claimSync(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.activeSyncs[userID]; ok && st.Running {
		return domain.ErrSyncInProgress
	}
	s.activeSyncs[userID] = &driving.SyncStatus{UserID: userID, Running: true}
	return nil
}

func (s *IngestService) releaseSync(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activeSyncs, userID)
}

// advance applies a status mutation under the service mutex.
func (s *IngestService) advance(userID string, fn func(*driving.SyncStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.activeSyncs[userID]; ok {
		fn(st)
	}
}
