// Package ollama provides an ai.Generator backed by a locally running Ollama
// server. Local models have a hard context window; overflow surfaces as
// ai.ErrContextOverflow so callers can truncate retrieved context and retry.
package ollama

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/LLabsTech/EstateSearchAI/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Generator implements ai.Generator using a local Ollama model.
type Generator struct {
	client llms.Model
	logger *slog.Logger
}

// NewGenerator creates a generator for the given Ollama server and model.
// serverURL may be empty to use the Ollama default (http://localhost:11434).
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(serverURL, model string) (ai.Generator, error) {
	if model == "" {
		return nil, errors.New("ollama: model is required")
	}

	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}

	client, err := ollama.New(opts...)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		logger: slog.Default().With("component", "ollama-generator"),
	}, nil
}

// Generate produces an answer for the prompt via the local inference loop.
// The call blocks for the full inference duration; callers run each request
// on its own goroutine.
func (g *Generator) Generate(ctx context.Context, prompt string, opts *ai.GenerateOptions) (string, error) {
	if opts == nil {
		opts = ai.DefaultGenerateOptions()
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, g.client, prompt,
		llms.WithMaxTokens(opts.MaxTokens),
		llms.WithTemperature(opts.Temperature),
		llms.WithStopWords(opts.StopWords),
	)
	if err != nil {
		g.logger.Error("local generation failed", "err", err)
		return "", ai.ClassifyGenerationError(err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		g.logger.Warn("local generation returned empty content")
		return "", ai.ErrGenerationEmpty
	}

	return out, nil
}
