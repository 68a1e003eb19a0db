package driving

import (
	"context"

	"github.com/verseline/verseline/internal/core/domain"
)

// LyricPicker selects lyric lines matching a caption from the user's
// indexed library.
type LyricPicker interface {
	// Pick embeds the caption, retrieves candidates from the user's
	// namespace and asks the language model to choose count lines.
	// Returns domain.ErrNotFound when the namespace yields no candidates
	// and domain.ErrSelectionUnmatched when the model output cannot be
	// reconciled with any candidate.
	Pick(ctx context.Context, userID, caption string, count int) ([]domain.Selection, error)
}

// Captioner describes images for use as captions.
type Captioner interface {
	// Caption produces one short first-person sentence describing the
	// image. Returns domain.ErrNoCaption when the model yields nothing.
	Caption(ctx context.Context, image []byte, mimeType string) (string, error)
}
