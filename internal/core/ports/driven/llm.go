package driven

import "context"

// LLMService provides language model operations for lyric selection.
type LLMService interface {
	// Chat conducts a chat-completion request and returns the text output.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string
}

// VisionService describes images with a vision-capable language model.
type VisionService interface {
	// Describe produces a caption for the given image bytes following
	// the supplied instruction. Returns the raw model output; an empty
	// result is the caller's hard failure to surface.
	Describe(ctx context.Context, image []byte, mimeType, instruction string) (string, error)
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
