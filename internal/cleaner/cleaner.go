// Package cleaner turns raw scraped lyrics into clean, indexable text.
// Cleaning is a pure transform: given identical input and configuration
// the output is byte-identical.
package cleaner

import (
	"regexp"
	"strings"

	"github.com/verseline/verseline/internal/core/domain"
)

const (
	// MaxRawLength is the raw-content ceiling. Anything longer is almost
	// certainly not lyrics (providers return scripts or essays for some
	// instrumental tracks).
	MaxRawLength = 4000

	// MinChunkLines is the minimum number of non-empty lines a cleaned
	// document needs to be worth indexing.
	MinChunkLines = 3

	// significantWordLen is the minimum length for a title word to count
	// in the title/lyrics mismatch check.
	significantWordLen = 2
)

var (
	bracketRe = regexp.MustCompile(`\[[^\]]*\]`)
	parenRe   = regexp.MustCompile(`\([^)]*\)`)
	spaceRunRe = regexp.MustCompile(`  +`)
	wordRe     = regexp.MustCompile(`[^a-z0-9]+`)
)

// Config carries the profanity word lists. It is built once at startup
// and injected; the cleaner holds no global state.
type Config struct {
	// Words is the complete profanity list (base plus user additions),
	// matched case-insensitively against whole words.
	Words []string
}

// NewConfig composes the embedded base list with user-supplied extras.
func NewConfig(extra []string) Config {
	words := make([]string, 0, len(baseProfanity)+len(extra))
	words = append(words, baseProfanity...)
	words = append(words, extra...)
	return Config{Words: words}
}

// Cleaner strips structural annotations, removes metadata lines, filters
// profane lines and rejects malformed, instrumental or mismatched content.
type Cleaner struct {
	profane map[string]struct{}
}

// New creates a cleaner with the given configuration.
func New(cfg Config) *Cleaner {
	profane := make(map[string]struct{}, len(cfg.Words))
	for _, w := range cfg.Words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			profane[w] = struct{}{}
		}
	}
	return &Cleaner{profane: profane}
}

// Clean transforms raw provider lyrics into indexable text.
// It returns a *domain.RejectionError when the content fails a quality
// heuristic; each heuristic triggers independently of the others.
func (c *Cleaner) Clean(raw, trackTitle string) (string, error) {
	if len(raw) > MaxRawLength {
		return "", domain.NewRejection(domain.RejectTooLong, "")
	}
	if strings.Contains(strings.ToLower(raw), "instrumental") {
		return "", domain.NewRejection(domain.RejectInstrumental, "")
	}
	if !titleMatches(raw, trackTitle) {
		return "", domain.NewRejection(domain.RejectTitleMismatch, "")
	}

	lines := strings.Split(raw, "\n")

	// Provider pages open with a contributor/title header that is not a
	// lyric line. Plain fragments have none, so only drop a detected one.
	if len(lines) > 1 && isHeaderLine(lines[0]) {
		lines = lines[1:]
	}

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = stripAnnotations(line)
		if line == "" {
			continue
		}
		if c.IsProfane(line) {
			continue
		}
		kept = append(kept, line)
	}

	cleaned := strings.TrimSpace(strings.Join(kept, "\n"))
	if cleaned == "" {
		return "", domain.NewRejection(domain.RejectEmpty, "")
	}
	return cleaned, nil
}

// IsProfane reports whether any word of text is on the profanity list.
// Matching is case-insensitive on alphanumeric word boundaries.
func (c *Cleaner) IsProfane(text string) bool {
	if len(c.profane) == 0 {
		return false
	}
	for _, w := range wordRe.Split(strings.ToLower(text), -1) {
		if w == "" {
			continue
		}
		if _, ok := c.profane[w]; ok {
			return true
		}
	}
	return false
}

// SplitChunks splits cleaned text into indexable chunks: one per
// non-empty line. Lyric lines are already semantically self-contained,
// so no finer windowing is applied.
func SplitChunks(cleaned string) []string {
	var chunks []string
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			chunks = append(chunks, line)
		}
	}
	return chunks
}

// stripAnnotations removes bracketed and parenthetical section labels
// ("[Chorus]", "(x2)") and tidies the remaining whitespace.
func stripAnnotations(line string) string {
	line = bracketRe.ReplaceAllString(line, "")
	line = parenRe.ReplaceAllString(line, "")
	line = spaceRunRe.ReplaceAllString(line, " ")
	return strings.TrimSpace(line)
}

// isHeaderLine reports whether line looks like a provider page header
// ("42 ContributorsViva La Vida Lyrics") rather than lyric content.
func isHeaderLine(line string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	return strings.HasSuffix(lower, "lyrics") || strings.Contains(lower, "contributors")
}

// titleMatches reports whether at least one significant word of the track
// title appears in the lyrics. The check guards against scraping the
// wrong page, and a scraped page always opens with a title header; a
// headerless fragment has no provenance to verify, so it passes. A title
// with no significant words also passes.
func titleMatches(raw, trackTitle string) bool {
	first, _, _ := strings.Cut(raw, "\n")
	if !isHeaderLine(first) {
		return true
	}

	lower := strings.ToLower(raw)
	significant := 0
	for _, w := range wordRe.Split(strings.ToLower(trackTitle), -1) {
		if len(w) <= significantWordLen {
			continue
		}
		significant++
		if strings.Contains(lower, w) {
			return true
		}
	}
	return significant == 0
}
