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


// Package anthropic provides an ai.Generator backed by the hosted Anthropic
// messages API.
package anthropic

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/LLabsTech/EstateSearchAI/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// Generator implements ai.Generator using Anthropic chat models.
type Generator struct {
	client llms.Model
	logger *slog.Logger
}

// NewGenerator creates a generator for the given Anthropic model.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(apiKey, model string) (ai.Generator, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if model == "" {
		return nil, errors.New("anthropic: model is required")
	}

	client, err := anthropic.New(
		anthropic.WithToken(apiKey),
		anthropic.WithModel(model),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		logger: slog.Default().With("component", "anthropic-generator"),
	}, nil
}

// Generate produces an answer for the prompt via the messages API.
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
		g.logger.Error("message generation failed", "err", err)
		return "", ai.ClassifyGenerationError(err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		g.logger.Warn("message generation returned empty content")
		return "", ai.ErrGenerationEmpty
	}

	return out, nil
}
