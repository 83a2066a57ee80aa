package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator turns a fully assembled prompt into a natural-language answer.
// Backends differ in latency and resource profile but present identical
// synchronous request/response semantics. Implementations must be thread-safe
// and classify their failures into the package's generation error sentinels.
type Generator interface {
	// Generate produces an answer for the prompt. A nil opts uses
	// DefaultGenerateOptions.
	Generate(ctx context.Context, prompt string, opts *GenerateOptions) (string, error)
}

// GenerateOptions holds the recognized generation parameters.
type GenerateOptions struct {
	// MaxTokens caps the response size.
	MaxTokens int

	// Temperature controls answer determinism versus creativity.
	Temperature float64

	// StopWords are optional early-termination markers.
	StopWords []string
}

// DefaultGenerateOptions returns the generation parameters used when the
// caller passes nil options.
func DefaultGenerateOptions() *GenerateOptions {
	return &GenerateOptions{
		MaxTokens:   1024,
		Temperature: 0.7,
	}
}
