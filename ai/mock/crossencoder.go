package mock

import (
	"context"
	"strings"
)

// MockCrossEncoder is a test double for ai.CrossEncoder.
// It allows custom behavior injection via function fields.
type MockCrossEncoder struct {
	// ScoreFunc is called by Score if set.
	// If nil, uses default token-overlap scoring.
	ScoreFunc func(ctx context.Context, query string, passages []string) ([]float64, error)

	callCount int
}

// NewMockCrossEncoder creates a mock cross-encoder with default
// token-overlap scoring: the fraction of query tokens present in the passage.
func NewMockCrossEncoder() *MockCrossEncoder {
	return &MockCrossEncoder{}
}

// Score returns one relevance score per passage, in input order.
func (m *MockCrossEncoder) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	m.callCount++

	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, query, passages)
	}

	queryTokens := strings.Fields(strings.ToLower(query))
	scores := make([]float64, len(passages))
	for i, passage := range passages {
		scores[i] = overlapScore(queryTokens, passage)
	}
	return scores, nil
}

// CallCount returns the number of times Score was called.
func (m *MockCrossEncoder) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockCrossEncoder) Reset() {
	m.callCount = 0
	m.ScoreFunc = nil
}

// overlapScore is the fraction of query tokens found in the passage.
func overlapScore(queryTokens []string, passage string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	passageLower := strings.ToLower(passage)
	matched := 0
	for _, token := range queryTokens {
		if strings.Contains(passageLower, token) {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTokens))
}
