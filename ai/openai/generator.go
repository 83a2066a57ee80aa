// Copyright 2025 LLabs Tech
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/LLabsTech/EstateSearchAI/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client llms.Model
	logger *slog.Logger
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	token := config.APIKey
	if token == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(token),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		logger: slog.Default().With("component", "openai-generator"),
	}, nil
}

// Generate produces an answer for the prompt via a chat completion call.
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
		g.logger.Error("chat completion failed", "err", err)
		return "", ai.ClassifyGenerationError(err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		g.logger.Warn("chat completion returned empty content")
		return "", ai.ErrGenerationEmpty
	}

	return out, nil
}
