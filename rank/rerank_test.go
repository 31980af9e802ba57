package rank

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/retrievit/ai/mock"
	"github.com/poiesic/retrievit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fusedWithText(pageID, text string, score float64) core.FusedResult {
	return core.FusedResult{
		CandidateResult: core.CandidateResult{
			ID:      pageID,
			Payload: core.Payload{PageID: pageID, Text: text},
		},
		FusedScore: score,
	}
}

func TestRerankOrdersByModelScore(t *testing.T) {
	encoder := mock.NewMockCrossEncoder()
	encoder.ScoreFunc = func(ctx context.Context, query string, passages []string) ([]float64, error) {
		scores := make([]float64, len(passages))
		for i, p := range passages {
			if strings.Contains(p, "стек технологий") {
				scores[i] = 0.9
			} else {
				scores[i] = 0.1
			}
		}
		return scores, nil
	}
	reranker := NewReranker(encoder)

	results := []core.FusedResult{
		fusedWithText("prefix", "RAUII-интеграция без деталей", 0.03),
		fusedWithText("stack", "полный стек технологий проекта", 0.02),
	}

	ranked := reranker.Rerank(context.Background(), "технологический стек проекта RAUII", results)
	require.Len(t, ranked, 2)
	assert.Equal(t, "stack", ranked[0].Payload.PageID)
	assert.True(t, ranked[0].Reranked)
	assert.InDelta(t, 0.9, ranked[0].RerankScore, 1e-9)
	assert.InDelta(t, 0.9, ranked[0].FinalScore, 1e-9)
}

func TestRerankFailsOpen(t *testing.T) {
	encoder := mock.NewMockCrossEncoder()
	encoder.ScoreFunc = func(ctx context.Context, query string, passages []string) ([]float64, error) {
		return nil, errors.New("model endpoint down")
	}
	reranker := NewReranker(encoder)

	results := []core.FusedResult{
		fusedWithText("a", "first", 0.03),
		fusedWithText("b", "second", 0.02),
	}

	ranked := reranker.Rerank(context.Background(), "query", results)
	require.Len(t, ranked, 2)
	// Boosted fusion order preserved, flagged as not reranked.
	assert.Equal(t, "a", ranked[0].Payload.PageID)
	for _, r := range ranked {
		assert.False(t, r.Reranked)
		assert.Zero(t, r.RerankScore)
		assert.Equal(t, r.FusedScore, r.FinalScore)
	}
}

func TestRerankNilEncoderPassesThrough(t *testing.T) {
	reranker := NewReranker(nil)
	results := []core.FusedResult{fusedWithText("a", "text", 0.03)}

	ranked := reranker.Rerank(context.Background(), "query", results)
	require.Len(t, ranked, 1)
	assert.False(t, ranked[0].Reranked)
	assert.Equal(t, 0.03, ranked[0].FinalScore)
}

func TestRerankScoreCountMismatchFailsOpen(t *testing.T) {
	encoder := mock.NewMockCrossEncoder()
	encoder.ScoreFunc = func(ctx context.Context, query string, passages []string) ([]float64, error) {
		return []float64{0.5}, nil
	}
	reranker := NewReranker(encoder)

	results := []core.FusedResult{
		fusedWithText("a", "first", 0.03),
		fusedWithText("b", "second", 0.02),
	}

	ranked := reranker.Rerank(context.Background(), "query", results)
	for _, r := range ranked {
		assert.False(t, r.Reranked)
	}
}

func TestRerankEmptyInput(t *testing.T) {
	reranker := NewReranker(mock.NewMockCrossEncoder())
	assert.Empty(t, reranker.Rerank(context.Background(), "query", nil))
}
