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


package query

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/LLabsTech/EstateSearchAI/ai"
	"github.com/LLabsTech/EstateSearchAI/vectorindex"
)

const (
	defaultTopK        = 5
	defaultMinScore    = 0.25
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
)

// DegradedAnswer is returned when answer generation stays unavailable after
// all retries. The caller receives it as a normal answer, never as an error.
const DegradedAnswer = "Sorry, the property assistant is temporarily unavailable. Please try again in a few minutes."

// Answer is the result of resolving one query. SupportingIDs lists the
// identifiers of the properties used as grounding context, most relevant
// first. It is empty when nothing relevant was retrieved or when the answer
// is degraded.
type Answer struct {
	Text          string
	SupportingIDs []string
}

// Resolver runs the query pipeline: embed the query, retrieve the nearest
// properties, assemble a grounded prompt and generate an answer.
type Resolver struct {
	index       vectorindex.Index
	embedder    ai.Embedder
	generator   ai.Generator
	topK        int
	minScore    float32
	maxAttempts int
	baseDelay   time.Duration
	genOpts     *ai.GenerateOptions
	logger      *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithTopK sets how many properties are retrieved per query.
func WithTopK(k int) Option {
	return func(r *Resolver) error {
		if k < 1 {
			return vectorindex.ErrInvalidLimit
		}
		r.topK = k
		return nil
	}
}

// WithMinScore sets the similarity score below which retrieved properties
// are dropped from the grounding context.
func WithMinScore(score float32) Option {
	return func(r *Resolver) error {
		r.minScore = score
		return nil
	}
}

// WithRetry sets the bounded retry policy for answer generation.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(r *Resolver) error {
		if maxAttempts <= 0 {
			return ai.ErrInvalidMaxAttempts
		}
		r.maxAttempts = maxAttempts
		r.baseDelay = baseDelay
		return nil
	}
}

// WithGenerateOptions sets the generation parameters passed to the model.
func WithGenerateOptions(opts *ai.GenerateOptions) Option {
	return func(r *Resolver) error {
		if opts != nil {
			r.genOpts = opts
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewResolver creates a resolver over the given index, embedder and
// generator.
func NewResolver(index vectorindex.Index, embedder ai.Embedder, generator ai.Generator, opts ...Option) (*Resolver, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	r := &Resolver{
		index:       index,
		embedder:    embedder,
		generator:   generator,
		topK:        defaultTopK,
		minScore:    defaultMinScore,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		genOpts:     ai.DefaultGenerateOptions(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "query")

	return r, nil
}

// Resolve answers one query. Embedding and retrieval errors are returned to
// the caller; generation faults are contained, so after retries are
// exhausted the caller gets the degraded answer with a nil error.
func (r *Resolver) Resolve(ctx context.Context, text string) (*Answer, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyQuery
	}

	vector, err := r.embedder.EmbedText(ctx, text)
	if err != nil {
		r.logger.Error("error embedding query", "err", err)
		return nil, err
	}

	matches, err := r.index.Search(ctx, vectorindex.Normalize(vector), r.topK)
	if err != nil {
		r.logger.Error("error searching index", "err", err)
		return nil, err
	}

	relevant := matches[:0:len(matches)]
	for _, m := range matches {
		if m.Score >= r.minScore {
			relevant = append(relevant, m)
		}
	}

	r.logger.Debug("retrieved grounding context",
		"retrieved", len(matches),
		"relevant", len(relevant))

	answerText, used, err := r.generateGrounded(ctx, text, relevant)
	if err != nil {
		r.logger.Warn("answer generation degraded", "err", err)
		return &Answer{Text: DegradedAnswer, SupportingIDs: []string{}}, nil
	}

	ids := make([]string, len(used))
	for i, m := range used {
		ids[i] = m.ID
	}

	return &Answer{Text: answerText, SupportingIDs: ids}, nil
}

// generateGrounded generates an answer from the assembled prompt. On context
// overflow it halves the grounding context and retries once before giving
// up. Returns the matches actually present in the final prompt.
func (r *Resolver) generateGrounded(ctx context.Context, text string, matches []vectorindex.Match) (string, []vectorindex.Match, error) {
	answerText, err := r.generate(ctx, buildPrompt(text, matches))
	if errors.Is(err, ai.ErrContextOverflow) && len(matches) > 0 {
		matches = matches[:len(matches)/2]
		r.logger.Warn("prompt exceeded model context, retrying with fewer listings",
			"listings", len(matches))
		answerText, err = r.generate(ctx, buildPrompt(text, matches))
	}
	if err != nil {
		return "", nil, err
	}
	return answerText, matches, nil
}

func (r *Resolver) generate(ctx context.Context, prompt string) (string, error) {
	var result string
	err := ai.RetryWithBackoff(ctx, func() error {
		out, genErr := r.generator.Generate(ctx, prompt, r.genOpts)
		if genErr != nil {
			return genErr
		}
		result = out
		return nil
	}, r.maxAttempts, r.baseDelay)
	return result, err
}
