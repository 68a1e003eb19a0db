// Package fsblob stores cleaned lyric documents as plain text files on
// the local filesystem, one directory per user. The directory listing
// doubles as the ingestion manifest: a track file exists only after its
// chunks have been upserted, so presence means fully ingested.
package fsblob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verseline/verseline/internal/core/domain"
	"github.com/verseline/verseline/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.LyricStore = (*Store)(nil)

const (
	docExtension = ".json"
	dirPerm      = 0o755
	filePerm     = 0o644
)

// Store persists lyric documents under root/<userID>/<trackID>.json.
type Store struct {
	root string
}

// storedDoc is the on-disk document format.
type storedDoc struct {
	ID          string    `json:"id"`
	TrackID     string    `json:"track_id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	CleanedText string    `json:"cleaned_text"`
	IngestedAt  time.Time `json:"ingested_at"`
}

// NewStore creates a store rooted at the given directory, creating it
// if missing. If root is empty, defaults to ~/.verseline/lyrics.
func NewStore(root string) (*Store, error) {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		root = filepath.Join(home, ".verseline", "lyrics")
	}
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("create root directory: %w", err)
	}
	return &Store{root: root}, nil
}

// Put writes the document, overwriting any previous version.
func (s *Store) Put(_ context.Context, doc domain.LyricDocument) error {
	if doc.OwnerUserID == "" || doc.Track.ProviderTrackID == "" {
		return fmt.Errorf("%w: owner and track id are required", domain.ErrInvalidInput)
	}

	userDir := filepath.Join(s.root, sanitize(doc.OwnerUserID))
	if err := os.MkdirAll(userDir, dirPerm); err != nil {
		return fmt.Errorf("create user directory: %w", err)
	}

	stored := storedDoc{
		ID:          doc.ID,
		TrackID:     doc.Track.ProviderTrackID,
		Title:       doc.Track.Title,
		Artist:      doc.Track.Artist,
		CleanedText: doc.CleanedText,
		IngestedAt:  doc.IngestedAt,
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	path := filepath.Join(userDir, sanitize(doc.Track.ProviderTrackID)+docExtension)
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// Get loads the document for (userID, trackID).
func (s *Store) Get(_ context.Context, userID, trackID string) (*domain.LyricDocument, error) {
	path := filepath.Join(s.root, sanitize(userID), sanitize(trackID)+docExtension)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read document: %w", err)
	}

	var stored storedDoc
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	return &domain.LyricDocument{
		ID:          stored.ID,
		OwnerUserID: userID,
		Track: domain.TrackRef{
			ProviderTrackID: stored.TrackID,
			Title:           stored.Title,
			Artist:          stored.Artist,
		},
		CleanedText: stored.CleanedText,
		IngestedAt:  stored.IngestedAt,
	}, nil
}

// ListTrackIDs returns the ids of every ingested track for the user.
// A missing user directory means an empty manifest, not an error.
func (s *Store) ListTrackIDs(_ context.Context, userID string) ([]string, error) {
	userDir := filepath.Join(s.root, sanitize(userID))
	entries, err := os.ReadDir(userDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read user directory: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, docExtension) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, docExtension))
	}
	return ids, nil
}

// sanitize keeps ids filesystem-safe. Track and user ids from providers
// are opaque tokens, but path separators must never leak into paths.
func sanitize(id string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	return replacer.Replace(id)
}
