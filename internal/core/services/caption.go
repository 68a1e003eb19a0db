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

// Ensure CaptionService implements the interface.
var _ driving.Captioner = (*CaptionService)(nil)

// CaptionService describes images with a vision model, producing one
// short first-person sentence suitable as a social caption.
type CaptionService struct {
	vision  driven.VisionService
	prompts driven.PromptStore
}

// NewCaptionService creates a new caption service.
func NewCaptionService(vision driven.VisionService, prompts driven.PromptStore) *CaptionService {
	return &CaptionService{vision: vision, prompts: prompts}
}

// Caption produces a caption for the image. An empty model response is a
// hard failure: there is no cached or default caption to fall back to.
func (s *CaptionService) Caption(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("%w: empty image", domain.ErrInvalidInput)
	}
	if s.vision == nil {
		return "", domain.ErrLLMUnavailable
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	instruction, err := s.prompts.Load(driven.PromptCaption)
	if err != nil {
		return "", fmt.Errorf("load prompt: %w", err)
	}

	raw, err := s.vision.Describe(ctx, image, mimeType, instruction)
	if err != nil {
		return "", fmt.Errorf("describe image: %w", err)
	}

	caption := strings.TrimSpace(raw)
	caption = strings.Trim(caption, `"`)
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return "", domain.ErrNoCaption
	}

	logger.Debug("Generated caption: %q", caption)
	return caption, nil
}
