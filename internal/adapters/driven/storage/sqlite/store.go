// Package sqlite provides the local catalogue database: which tracks
// have been ingested per user and the outcome of the most recent sync.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/verseline/verseline/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/verseline/verseline/internal/core/domain"
	"github.com/verseline/verseline/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.CatalogueStore = (*Store)(nil)

// Store is the SQLite-backed catalogue store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.verseline/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".verseline", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "catalogue.db")

	// WAL mode for better concurrency between sync and status reads.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveTrack records an ingested track for the user.
func (s *Store) SaveTrack(ctx context.Context, userID string, track domain.TrackRef) error {
	if userID == "" || track.ProviderTrackID == "" {
		return fmt.Errorf("%w: user id and track id are required", domain.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracks (user_id, provider_track_id, title, artist, ingested_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, provider_track_id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			ingested_at = excluded.ingested_at
	`, userID, track.ProviderTrackID, track.Title, track.Artist, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("saving track: %w", err)
	}
	return nil
}

// ListTracks returns the recorded tracks for the user.
func (s *Store) ListTracks(ctx context.Context, userID string) ([]domain.TrackRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT provider_track_id, title, artist
		FROM tracks WHERE user_id = ?
		ORDER BY ingested_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying tracks: %w", err)
	}
	defer rows.Close()

	var tracks []domain.TrackRef //nolint:prealloc // size unknown from query
	for rows.Next() {
		var track domain.TrackRef
		if err := rows.Scan(&track.ProviderTrackID, &track.Title, &track.Artist); err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tracks: %w", err)
	}
	return tracks, nil
}

// SaveSyncState persists the outcome of a completed sync.
func (s *Store) SaveSyncState(ctx context.Context, state domain.SyncState) error {
	if state.UserID == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_states (user_id, last_sync, processed, skipped, failed)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			last_sync = excluded.last_sync,
			processed = excluded.processed,
			skipped = excluded.skipped,
			failed = excluded.failed
	`, state.UserID, state.LastSync.UTC(), state.Processed, state.Skipped, state.Failed)

	if err != nil {
		return fmt.Errorf("saving sync state: %w", err)
	}
	return nil
}

// GetSyncState returns the last sync outcome, or domain.ErrNotFound.
func (s *Store) GetSyncState(ctx context.Context, userID string) (*domain.SyncState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, last_sync, processed, skipped, failed
		FROM sync_states WHERE user_id = ?
	`, userID)

	var state domain.SyncState
	var lastSync sql.NullTime
	if err := row.Scan(&state.UserID, &lastSync, &state.Processed, &state.Skipped, &state.Failed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning sync state: %w", err)
	}
	if lastSync.Valid {
		state.LastSync = lastSync.Time
	}
	return &state, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}
