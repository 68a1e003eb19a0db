// Package genius provides a lyrics source adapter backed by the Genius
// search API and song page scraping.
package genius

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/verseline/verseline/internal/core/domain"
	"github.com/verseline/verseline/internal/core/ports/driven"
	"github.com/verseline/verseline/internal/logger"
	"github.com/verseline/verseline/internal/ratelimit"
)

// Ensure Source implements the interface.
var _ driven.LyricsSource = (*Source)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.genius.com"
	DefaultTimeout = 10 * time.Second
	userAgent      = "verseline/1.0"
)

// Config holds configuration for the Genius source.
type Config struct {
	// AccessToken is the Genius API bearer token (required).
	AccessToken string

	// BaseURL is the API base URL. Overridable for tests.
	BaseURL string

	// Timeout is the per-request timeout (default: 10s).
	Timeout time.Duration
}

// Source fetches raw lyrics from Genius. Every miss (search failure,
// zero hits, sanity-check rejection, scrape failure) is returned as
// domain.ErrNotFound so batch ingestion continues past it.
type Source struct {
	client  *http.Client
	baseURL string
	token   string
}

// searchResponse is the Genius /search response format.
type searchResponse struct {
	Response struct {
		Hits []struct {
			Result hit `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}

// hit is one Genius search result.
type hit struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`

	PrimaryArtist struct {
		Name string `json:"name"`
	} `json:"primary_artist"`
}

// NewSource creates a new Genius lyrics source.
func NewSource(cfg Config) (*Source, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("genius: access token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Source{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		token:   cfg.AccessToken,
	}, nil
}

// Name returns the provider identifier.
func (s *Source) Name() string { return "genius" }

// FetchLyrics returns raw lyric text for (title, artist).
func (s *Source) FetchLyrics(ctx context.Context, title, artist string) (string, error) {
	if title == "" || artist == "" {
		return "", fmt.Errorf("%w: title and artist are required", domain.ErrInvalidInput)
	}

	hits, err := s.search(ctx, title+" "+artist)
	if err != nil {
		if _, ok := domain.IsRateLimited(err); ok {
			return "", err
		}
		logger.Debug("Genius search for %q / %q failed: %v", title, artist, err)
		return "", domain.ErrNotFound
	}
	if len(hits) == 0 {
		return "", domain.ErrNotFound
	}

	chosen, ok := pickHit(hits, title, artist)
	if !ok {
		logger.Debug("No Genius hit passed selection for %q / %q", title, artist)
		return "", domain.ErrNotFound
	}

	raw, err := s.scrape(ctx, chosen.URL)
	if err != nil {
		if _, ok := domain.IsRateLimited(err); ok {
			return "", err
		}
		logger.Debug("Genius page scrape failed for %s: %v", chosen.URL, err)
		return "", domain.ErrNotFound
	}
	return raw, nil
}

// search issues a search query and returns the ranked hits.
func (s *Source) search(ctx context.Context, query string) ([]hit, error) {
	searchURL := fmt.Sprintf("%s/search?q=%s", s.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &domain.RateLimitedError{
			Provider:   "genius",
			RetryAfter: ratelimit.RetryAfterSeconds(resp.Header),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("genius returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	hits := make([]hit, 0, len(parsed.Response.Hits))
	for _, h := range parsed.Response.Hits {
		if h.Result.URL == "" {
			continue
		}
		hits = append(hits, h.Result)
	}
	return hits, nil
}

// pickHit applies the candidate-selection policy: prefer the hit whose
// normalised artist contains the query artist and whose normalised title
// contains the query title. Failing that, fall back to the first-ranked
// hit, but only if its page URL contains the longest word of the track
// title. The sanity check guards against false positives on very short
// or common titles.
func pickHit(hits []hit, title, artist string) (hit, bool) {
	wantTitle := normalise(title)
	wantArtist := normalise(artist)

	for _, h := range hits {
		if strings.Contains(normalise(h.PrimaryArtist.Name), wantArtist) &&
			strings.Contains(normalise(h.Title), wantTitle) {
			return h, true
		}
	}

	first := hits[0]
	anchor := longestWord(title)
	if anchor == "" || !strings.Contains(strings.ToLower(first.URL), anchor) {
		return hit{}, false
	}
	return first, true
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// normalise lowercases and strips every non-alphanumeric character.
func normalise(s string) string {
	return nonAlnumRe.ReplaceAllString(strings.ToLower(s), "")
}

// longestWord returns the longest alphanumeric word of the title,
// lowercased.
func longestWord(title string) string {
	var longest string
	for _, w := range nonAlnumRe.Split(strings.ToLower(title), -1) {
		if len(w) > len(longest) {
			longest = w
		}
	}
	return longest
}
