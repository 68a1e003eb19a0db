package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// The same service instance (same model and dimensionality) must be used
// at ingestion and query time; a mismatch silently degrades retrieval
// quality with no runtime error signal.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}
