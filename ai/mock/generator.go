package mock

import (
	"context"

	"github.com/LLabsTech/EstateSearchAI/ai"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, returns Response.
	GenerateFunc func(ctx context.Context, prompt string, opts *ai.GenerateOptions) (string, error)

	// Response is the fixed answer returned when GenerateFunc is nil.
	Response string

	callCount int
	prompts   []string
}

// NewMockGenerator creates a mock generator with a fixed default answer.
// Note: Returns concrete type to allow test assertions on calls and prompts.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{Response: "mock answer"}
}

// Generate records the prompt and returns the configured response.
func (m *MockGenerator) Generate(ctx context.Context, prompt string, opts *ai.GenerateOptions) (string, error) {
	m.callCount++
	m.prompts = append(m.prompts, prompt)

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, opts)
	}
	return m.Response, nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Prompts returns every prompt passed to Generate, in call order.
func (m *MockGenerator) Prompts() []string {
	return m.prompts
}

// LastPrompt returns the most recent prompt, or "" if none.
func (m *MockGenerator) LastPrompt() string {
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// Reset clears recorded calls and custom functions.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.prompts = nil
	m.GenerateFunc = nil
}
