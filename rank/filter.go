package rank

import "github.com/poiesic/retrievit/core"

// ThresholdConfig holds the per-intent rerank score floors. Stricter floors
// for navigational and factual queries favor precision; looser floors for
// howto and exploratory queries favor recall.
type ThresholdConfig struct {
	Navigational float64
	Factual      float64
	HowTo        float64
	Exploratory  float64
}

// DefaultThresholdConfig returns the tuned threshold defaults.
func DefaultThresholdConfig() ThresholdConfig {
	return ThresholdConfig{
		Navigational: 0.0075,
		Factual:      0.005,
		HowTo:        0.0025,
		Exploratory:  0.0025,
	}
}

// FloorForIntent returns the score floor for the given intent.
func (c ThresholdConfig) FloorForIntent(intent core.QueryIntent) float64 {
	switch intent {
	case core.IntentNavigational:
		return c.Navigational
	case core.IntentFactual:
		return c.Factual
	case core.IntentHowTo:
		return c.HowTo
	default:
		return c.Exploratory
	}
}

// Filter drops candidates whose score is below the intent-specific floor.
// Only reranked results are filtered; when reranking was skipped the model
// score is absent and the floor does not apply, so everything is kept.
// Raising the floor can only remove candidates, never add them.
func Filter(cfg ThresholdConfig, results []core.RankedResult, intent core.QueryIntent) []core.RankedResult {
	floor := cfg.FloorForIntent(intent)

	kept := make([]core.RankedResult, 0, len(results))
	for _, result := range results {
		result.Kept = !result.Reranked || result.RerankScore >= floor
		if result.Kept {
			kept = append(kept, result)
		}
	}
	return kept
}
