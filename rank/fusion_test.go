package rank

import (
	"testing"

	"github.com/poiesic/retrievit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(pageID string, source core.Source) core.CandidateResult {
	return core.CandidateResult{
		ID:      pageID,
		Source:  source,
		Payload: core.Payload{PageID: pageID, Text: "text for " + pageID},
	}
}

func TestFuseDisjointLists(t *testing.T) {
	cfg := DefaultFusionConfig()
	vector := []core.CandidateResult{
		candidate("v1", core.SourceVector),
		candidate("v2", core.SourceVector),
	}
	lexical := []core.CandidateResult{
		candidate("l1", core.SourceLexical),
		candidate("l2", core.SourceLexical),
	}

	results := Fuse(cfg, vector, lexical, 10)
	require.Len(t, results, 4)

	// Every fused score equals exactly one source's weighted contribution.
	byKey := map[string]core.FusedResult{}
	for _, r := range results {
		byKey[r.Payload.PageID] = r
	}
	assert.InDelta(t, cfg.VectorWeight/float64(cfg.K+1), byKey["v1"].FusedScore, 1e-12)
	assert.InDelta(t, cfg.VectorWeight/float64(cfg.K+2), byKey["v2"].FusedScore, 1e-12)
	assert.InDelta(t, cfg.LexicalWeight/float64(cfg.K+1), byKey["l1"].FusedScore, 1e-12)
	assert.InDelta(t, cfg.LexicalWeight/float64(cfg.K+2), byKey["l2"].FusedScore, 1e-12)

	// Contributing source ranks are carried through.
	assert.Equal(t, 1, byKey["v1"].VectorRank)
	assert.Equal(t, 0, byKey["v1"].LexicalRank)
	assert.Equal(t, 2, byKey["l2"].LexicalRank)
	assert.Equal(t, 0, byKey["l2"].VectorRank)
}

func TestFuseBothListsBeatsSingleList(t *testing.T) {
	cfg := DefaultFusionConfig()
	vector := []core.CandidateResult{
		candidate("both", core.SourceVector),
	}
	lexical := []core.CandidateResult{
		candidate("both", core.SourceLexical),
		candidate("only-lexical", core.SourceLexical),
	}

	results := Fuse(cfg, vector, lexical, 10)
	require.Len(t, results, 2)
	assert.Equal(t, "both", results[0].Payload.PageID)
	assert.Greater(t, results[0].FusedScore, results[1].FusedScore)
	assert.Equal(t, 1, results[0].VectorRank)
	assert.Equal(t, 1, results[0].LexicalRank)
}

func TestFuseLexicalOnlyCandidateSurvives(t *testing.T) {
	cfg := DefaultFusionConfig()
	vector := make([]core.CandidateResult, 0, 20)
	for i := 0; i < 20; i++ {
		vector = append(vector, candidate(string(rune('a'+i)), core.SourceVector))
	}
	lexical := []core.CandidateResult{candidate("lexical-top", core.SourceLexical)}

	results := Fuse(cfg, vector, lexical, 25)
	found := false
	for _, r := range results {
		if r.Payload.PageID == "lexical-top" {
			found = true
		}
	}
	assert.True(t, found, "lexical top hit must survive fusion even when absent from vector hits")
}

func TestFuseSingleSourceDegradation(t *testing.T) {
	cfg := DefaultFusionConfig()
	vector := []core.CandidateResult{
		candidate("v1", core.SourceVector),
		candidate("v2", core.SourceVector),
		candidate("v3", core.SourceVector),
	}

	results := Fuse(cfg, vector, nil, 10)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, vector[i].Payload.PageID, r.Payload.PageID)
		assert.InDelta(t, cfg.VectorWeight/float64(cfg.K+i+1), r.FusedScore, 1e-12)
	}
}

func TestFuseEmptyInputs(t *testing.T) {
	assert.Nil(t, Fuse(DefaultFusionConfig(), nil, nil, 10))
}

func TestFuseLimitTruncation(t *testing.T) {
	cfg := DefaultFusionConfig()
	var vector []core.CandidateResult
	for i := 0; i < 10; i++ {
		vector = append(vector, candidate(string(rune('a'+i)), core.SourceVector))
	}
	results := Fuse(cfg, vector, nil, 3)
	assert.Len(t, results, 3)
}

func TestFuseTieBrokenByVectorRank(t *testing.T) {
	// Equal weights and mirrored ranks produce ties; the candidate with the
	// better vector rank must come first.
	cfg := FusionConfig{K: 60, VectorWeight: 0.5, LexicalWeight: 0.5}
	vector := []core.CandidateResult{
		candidate("a", core.SourceVector),
		candidate("b", core.SourceVector),
	}
	lexical := []core.CandidateResult{
		candidate("b", core.SourceLexical),
		candidate("a", core.SourceLexical),
	}

	results := Fuse(cfg, vector, lexical, 10)
	require.Len(t, results, 2)
	assert.InDelta(t, results[0].FusedScore, results[1].FusedScore, 1e-12)
	assert.Equal(t, "a", results[0].Payload.PageID)
}

func TestWeightsForIntentNormalized(t *testing.T) {
	cfg := DefaultFusionConfig()
	for _, intent := range []core.QueryIntent{
		core.IntentNavigational, core.IntentHowTo, core.IntentFactual, core.IntentExploratory,
	} {
		adapted := cfg.WeightsForIntent(intent)
		assert.InDelta(t, 1.0, adapted.VectorWeight+adapted.LexicalWeight, 1e-9, string(intent))
	}

	nav := cfg.WeightsForIntent(core.IntentNavigational)
	assert.Greater(t, nav.VectorWeight, nav.LexicalWeight)

	factual := cfg.WeightsForIntent(core.IntentFactual)
	assert.InDelta(t, 0.4, factual.VectorWeight, 1e-9)
	assert.InDelta(t, 0.6, factual.LexicalWeight, 1e-9)
}
