package mock

import "context"

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, the prompt is echoed back unchanged.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	// NameValue is returned by Name. Defaults to "mock".
	NameValue string

	callCount int
}

// NewMockGenerator creates a mock generator that echoes prompts back.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate returns the injected behavior's result, or echoes the prompt.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.callCount++

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return prompt, nil
}

// Name identifies this provider in logs and cache entries.
func (m *MockGenerator) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock"
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.GenerateFunc = nil
}
