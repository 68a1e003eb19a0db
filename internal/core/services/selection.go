package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/verseline/verseline/internal/core/domain"
	"github.com/verseline/verseline/internal/core/ports/driven"
	"github.com/verseline/verseline/internal/core/ports/driving"
	"github.com/verseline/verseline/internal/logger"
)

// Ensure SelectionService implements the interface.
var _ driving.LyricPicker = (*SelectionService)(nil)

// minTopK is the candidate floor requested from the vector index. Even a
// single-result pick retrieves several candidates so the model has
// alternatives to weigh.
const minTopK = 5

// SelectionService turns a caption into one or more matching lyric lines.
// It embeds the caption, queries the caller's vector namespace and asks
// the language model to choose among the retrieved candidates; the
// model's answer is reconciled back to stored chunks by substring
// containment, which guards against paraphrase and hallucination.
type SelectionService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	llm      driven.LLMService
	prompts  driven.PromptStore
}

// NewSelectionService creates a new selection service.
func NewSelectionService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	llm driven.LLMService,
	prompts driven.PromptStore,
) *SelectionService {
	return &SelectionService{
		embedder: embedder,
		index:    index,
		llm:      llm,
		prompts:  prompts,
	}
}

// Pick selects count lyric lines matching the caption for the user.
func (s *SelectionService) Pick(
	ctx context.Context, userID, caption string, count int,
) ([]domain.Selection, error) {
	caption = strings.TrimSpace(caption)
	if userID == "" || caption == "" {
		return nil, fmt.Errorf("%w: user id and caption are required", domain.ErrInvalidInput)
	}
	if count < 1 {
		count = 1
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	logger.Section("Lyric Selection")
	logger.Debug("Caption: %q, count: %d", caption, count)

	vector, err := s.embedder.Embed(ctx, caption)
	if err != nil {
		return nil, fmt.Errorf("embed caption: %w", err)
	}

	topK := count * 3
	if topK < minTopK {
		topK = minTopK
	}
	candidates, err := s.index.Query(ctx, userID, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("query vector index: %w", err)
	}
	logger.Debug("Retrieved %d candidates", len(candidates))

	candidates = dropEmpty(candidates)
	if len(candidates) == 0 {
		return nil, domain.ErrNotFound
	}

	prompt, err := s.buildPrompt(caption, candidates, count)
	if err != nil {
		return nil, err
	}

	answer, err := s.llm.Chat(ctx, []driven.ChatMessage{
		{Role: "user", Content: prompt},
	}, driven.ChatOptions{MaxTokens: 300, Temperature: 0.4})
	if err != nil {
		return nil, fmt.Errorf("select lyric: %w", err)
	}
	logger.Debug("Model answer: %q", answer)

	selections := s.reconcile(answer, candidates, count)
	if len(selections) == 0 {
		return nil, domain.ErrSelectionUnmatched
	}
	return selections, nil
}

// buildPrompt renders the single- or multi-pick template with the caption
// and the annotated candidate list.
func (s *SelectionService) buildPrompt(caption string, candidates []domain.Candidate, count int) (string, error) {
	list := formatCandidates(candidates)

	if count == 1 {
		tpl, err := s.prompts.Load(driven.PromptPickSingle)
		if err != nil {
			return "", fmt.Errorf("load prompt: %w", err)
		}
		return fmt.Sprintf(tpl, caption, list), nil
	}

	tpl, err := s.prompts.Load(driven.PromptPickMulti)
	if err != nil {
		return "", fmt.Errorf("load prompt: %w", err)
	}
	return fmt.Sprintf(tpl, count, caption, list), nil
}

// reconcile maps model output lines back to candidates and returns up to
// count distinct selections. Unmatched lines are dropped.
func (s *SelectionService) reconcile(answer string, candidates []domain.Candidate, count int) []domain.Selection {
	seen := make(map[string]struct{})
	var selections []domain.Selection

	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		candidate, ok := MatchBack(line, candidates)
		if !ok {
			logger.Debug("Unmatched model line: %q", line)
			continue
		}
		if _, dup := seen[candidate.Record.ID]; dup {
			continue
		}
		seen[candidate.Record.ID] = struct{}{}
		selections = append(selections, domain.Selection{
			Text:   candidate.Record.Text,
			Track:  candidate.Record.Track,
			Artist: candidate.Record.Artist,
		})
		if len(selections) == count {
			break
		}
	}
	return selections
}

// MatchBack finds the candidate whose stored text is contained in the
// model's output line. This is a best-effort reconciliation tolerant of
// surrounding context the model may add; when several candidates match
// (possible with short, generic lines) the first in candidate order wins.
func MatchBack(line string, candidates []domain.Candidate) (*domain.Candidate, bool) {
	for i := range candidates {
		if candidates[i].Record.Text == "" {
			continue
		}
		if strings.Contains(line, candidates[i].Record.Text) {
			return &candidates[i], true
		}
	}
	return nil, false
}

// formatCandidates renders candidates one per line, annotated with track
// and artist when known.
func formatCandidates(candidates []domain.Candidate) string {
	var b strings.Builder
	for _, c := range candidates {
		b.WriteString(`- "`)
		b.WriteString(c.Record.Text)
		b.WriteString(`"`)
		if c.Record.Track != "" && c.Record.Artist != "" {
			fmt.Fprintf(&b, " (%s by %s)", c.Record.Track, c.Record.Artist)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// dropEmpty filters candidates lacking a non-empty text field.
func dropEmpty(candidates []domain.Candidate) []domain.Candidate {
	kept := candidates[:0]
	for _, c := range candidates {
		if strings.TrimSpace(c.Record.Text) != "" {
			kept = append(kept, c)
		}
	}
	return kept
}
