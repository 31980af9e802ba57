// Copyright 2025 Poiesic Systems
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


package rank

import (
	"slices"

	"github.com/poiesic/retrievit/core"
)

// FusionConfig holds the Reciprocal Rank Fusion parameters.
// Weights are empirically tuned trust in each source for this corpus, not
// derived values; treat them as tunable configuration.
type FusionConfig struct {
	// K damps rank-1 dominance in the reciprocal rank formula.
	K int
	// VectorWeight scales contributions from the dense vector list.
	VectorWeight float64
	// LexicalWeight scales contributions from the lexical (BM25) list.
	LexicalWeight float64
}

// DefaultFusionConfig returns the tuned fusion defaults.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		K:             60,
		VectorWeight:  0.4,
		LexicalWeight: 0.6,
	}
}

// WeightsForIntent returns fusion weights adapted to the query intent,
// normalized so they sum to 1. Navigational queries lean on the vector list
// (specific pages embed distinctively); exploratory queries split evenly.
func (c FusionConfig) WeightsForIntent(intent core.QueryIntent) FusionConfig {
	adapted := c
	switch intent {
	case core.IntentNavigational:
		adapted.VectorWeight, adapted.LexicalWeight = 0.7, 0.3
	case core.IntentExploratory:
		adapted.VectorWeight, adapted.LexicalWeight = 0.5, 0.5
	case core.IntentHowTo:
		adapted.VectorWeight, adapted.LexicalWeight = 0.55, 0.45
	case core.IntentFactual:
		adapted.VectorWeight, adapted.LexicalWeight = c.VectorWeight, c.LexicalWeight
	}
	total := adapted.VectorWeight + adapted.LexicalWeight
	if total > 0 {
		adapted.VectorWeight /= total
		adapted.LexicalWeight /= total
	}
	return adapted
}

// Fuse merges the vector and lexical candidate lists with Reciprocal Rank
// Fusion. A candidate at 1-based rank r in a source list contributes
// weight/(K+r); candidates appearing in both lists (matched by content key)
// sum both contributions. The result is the union of both inputs sorted by
// fused score descending, ties broken by vector rank, truncated to limit.
func Fuse(cfg FusionConfig, vectorResults, lexicalResults []core.CandidateResult, limit int) []core.FusedResult {
	if len(vectorResults) == 0 && len(lexicalResults) == 0 {
		return nil
	}

	fused := make(map[string]*core.FusedResult, len(vectorResults)+len(lexicalResults))
	order := make([]string, 0, len(vectorResults)+len(lexicalResults))

	for i, candidate := range vectorResults {
		rank := i + 1
		key := candidate.ContentKey()
		entry, ok := fused[key]
		if !ok {
			entry = &core.FusedResult{CandidateResult: candidate}
			fused[key] = entry
			order = append(order, key)
		}
		entry.VectorRank = rank
		entry.FusedScore += cfg.VectorWeight / float64(cfg.K+rank)
	}

	for i, candidate := range lexicalResults {
		rank := i + 1
		key := candidate.ContentKey()
		entry, ok := fused[key]
		if !ok {
			entry = &core.FusedResult{CandidateResult: candidate}
			fused[key] = entry
			order = append(order, key)
		}
		entry.LexicalRank = rank
		entry.FusedScore += cfg.LexicalWeight / float64(cfg.K+rank)
	}

	results := make([]core.FusedResult, 0, len(order))
	for _, key := range order {
		results = append(results, *fused[key])
	}

	slices.SortStableFunc(results, func(a, b core.FusedResult) int {
		if a.FusedScore > b.FusedScore {
			return -1
		}
		if a.FusedScore < b.FusedScore {
			return 1
		}
		return compareVectorRank(a.VectorRank, b.VectorRank)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// compareVectorRank orders tied fused scores by original vector rank.
// Candidates absent from the vector list (rank 0) sort last.
func compareVectorRank(a, b int) int {
	if a == b {
		return 0
	}
	if a == 0 {
		return 1
	}
	if b == 0 {
		return -1
	}
	if a < b {
		return -1
	}
	return 1
}
