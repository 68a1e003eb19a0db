package genius

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/verseline/verseline/internal/core/domain"
	"github.com/verseline/verseline/internal/ratelimit"
)

// lyricsSelector matches the containers Genius renders lyric text into.
const lyricsSelector = `div[data-lyrics-container="true"]`

// scrape fetches a Genius song page and extracts its lyric text.
func (s *Source) scrape(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &domain.RateLimitedError{
			Provider:   "genius",
			RetryAfter: ratelimit.RetryAfterSeconds(resp.Header),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	containers := doc.Find(lyricsSelector)
	if containers.Length() == 0 {
		return "", fmt.Errorf("no lyrics container on page")
	}

	var parts []string
	containers.Each(func(_ int, sel *goquery.Selection) {
		// Line breaks are <br> elements; turn them into newlines before
		// flattening to text.
		sel.Find("br").Each(func(_ int, br *goquery.Selection) {
			br.ReplaceWithHtml("\n")
		})
		parts = append(parts, sel.Text())
	})

	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return "", fmt.Errorf("empty lyrics on page")
	}
	return text, nil
}
