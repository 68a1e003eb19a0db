// Package spotify provides a music library adapter backed by the
// Spotify Web API. It lists the saved tracks of the account that owns
// the access token.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/verseline/verseline/internal/core/domain"
	"github.com/verseline/verseline/internal/core/ports/driven"
	"github.com/verseline/verseline/internal/logger"
)

// Ensure Library implements the interface.
var _ driven.MusicLibrary = (*Library)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.spotify.com/v1"
	DefaultTimeout = 15 * time.Second

	// pageSize is the saved-tracks page size, the API maximum.
	pageSize = 50
)

// Config holds configuration for the Spotify library.
type Config struct {
	// AccessToken is a user-scoped OAuth access token with the
	// user-library-read scope (required).
	AccessToken string

	// BaseURL is the API base URL. Overridable for tests.
	BaseURL string

	// Timeout is the per-request timeout (default: 15s).
	Timeout time.Duration
}

// Library lists a user's saved tracks from Spotify.
type Library struct {
	client  *http.Client
	baseURL string
}

// savedTracksResponse is the Spotify /me/tracks response format.
type savedTracksResponse struct {
	Items []struct {
		Track struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
		} `json:"track"`
	} `json:"items"`
	Next string `json:"next"`
}

// NewLibrary creates a new Spotify library adapter. The access token is
// wrapped in an oauth2 static token source so every request carries it.
func NewLibrary(cfg Config) (*Library, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("spotify: access token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
	client := oauth2.NewClient(context.Background(), source)
	client.Timeout = cfg.Timeout

	return &Library{
		client:  client,
		baseURL: cfg.BaseURL,
	}, nil
}

// ListTracks returns every saved track for the token's account.
// Tracks missing an id, title or artist are skipped, not fatal.
func (l *Library) ListTracks(ctx context.Context, userID string) ([]domain.TrackRef, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	var tracks []domain.TrackRef
	next := fmt.Sprintf("%s/me/tracks?limit=%d", l.baseURL, pageSize)

	for next != "" {
		page, err := l.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			track := item.Track
			if track.ID == "" || track.Name == "" || len(track.Artists) == 0 || track.Artists[0].Name == "" {
				logger.Debug("Skipping malformed saved track: %+v", track)
				continue
			}
			tracks = append(tracks, domain.TrackRef{
				ProviderTrackID: track.ID,
				Title:           track.Name,
				Artist:          track.Artists[0].Name,
			})
		}
		next = page.Next
	}

	logger.Debug("Listed %d saved tracks for user %s", len(tracks), userID)
	return tracks, nil
}

// fetchPage fetches one saved-tracks page.
func (l *Library) fetchPage(ctx context.Context, pageURL string) (*savedTracksResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("spotify returned status %d: %s", resp.StatusCode, string(body))
	}

	var page savedTracksResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &page, nil
}
