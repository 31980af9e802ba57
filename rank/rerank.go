package rank

import (
	"context"
	"log/slog"
	"slices"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/retrieval"
)

// Reranker rescores candidates against the raw query with a pairwise
// relevance model. When the model scores are present they are the
// authoritative final ordering; when the model is unavailable the stage is
// skipped entirely and results pass through in boosted-fusion order with
// Reranked=false.
type Reranker struct {
	encoder ai.CrossEncoder
	logger  *slog.Logger
}

// NewReranker creates a reranker around the given cross encoder.
// A nil encoder disables reranking; Rerank then always fails open.
func NewReranker(encoder ai.CrossEncoder) *Reranker {
	return &Reranker{
		encoder: encoder,
		logger:  slog.Default().With("component", "reranker"),
	}
}

// Rerank scores each candidate's text against the query and re-sorts by the
// model score. FinalScore carries the authoritative score for downstream
// filtering: the rerank score when available, the boosted fused score
// otherwise.
func (r *Reranker) Rerank(ctx context.Context, query string, results []core.FusedResult) []core.RankedResult {
	ranked := make([]core.RankedResult, len(results))
	for i, result := range results {
		ranked[i] = core.RankedResult{
			FusedResult: result,
			BoostScore:  result.FusedScore,
			FinalScore:  result.FusedScore,
		}
	}
	if len(ranked) == 0 || r.encoder == nil {
		return ranked
	}

	passages := make([]string, len(results))
	for i := range results {
		text, _ := retrieval.ExtractText(&results[i].Payload)
		passages[i] = text
	}

	scores, err := r.encoder.Score(ctx, query, passages)
	if err != nil || len(scores) != len(ranked) {
		r.logger.Warn("cross-encoder unavailable, passing results through unreranked",
			"error", err, "candidates", len(ranked))
		return ranked
	}

	for i := range ranked {
		ranked[i].RerankScore = scores[i]
		ranked[i].FinalScore = scores[i]
		ranked[i].Reranked = true
	}

	slices.SortStableFunc(ranked, func(a, b core.RankedResult) int {
		if a.FinalScore > b.FinalScore {
			return -1
		}
		if a.FinalScore < b.FinalScore {
			return 1
		}
		return 0
	})
	return ranked
}
