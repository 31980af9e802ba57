package rank

import (
	"testing"

	"github.com/poiesic/retrievit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fusedResult(pageID, title, heading, breadcrumb string, score float64) core.FusedResult {
	return core.FusedResult{
		CandidateResult: core.CandidateResult{
			ID: pageID,
			Payload: core.Payload{
				PageID:      pageID,
				Title:       title,
				HeadingPath: heading,
				Breadcrumb:  breadcrumb,
				Text:        "body",
			},
		},
		FusedScore: score,
	}
}

func TestBoostNeverDecreasesScores(t *testing.T) {
	cfg := DefaultBoostConfig()
	results := []core.FusedResult{
		fusedResult("a", "Kafka deployment", "", "", 0.02),
		fusedResult("b", "Unrelated", "", "", 0.015),
	}

	boosted := Boost(cfg, "kafka deployment", core.IntentExploratory, results)
	byKey := map[string]core.FusedResult{}
	for _, r := range boosted {
		byKey[r.Payload.PageID] = r
	}
	assert.GreaterOrEqual(t, byKey["a"].FusedScore, 0.02)
	assert.Equal(t, 0.015, byKey["b"].FusedScore)
}

func TestBoostBoundedByCeiling(t *testing.T) {
	cfg := DefaultBoostConfig()
	// Title, heading and hierarchy all match; the sum would exceed the
	// ceiling without clamping.
	r := fusedResult("a", "kafka deployment", "kafka deployment", "Home", 0.02)

	boosted := Boost(cfg, "kafka deployment", core.IntentFactual, []core.FusedResult{r})
	require.Len(t, boosted, 1)
	assert.LessOrEqual(t, boosted[0].FusedScore, 0.02*(1+cfg.Ceiling)+1e-12)
	assert.Greater(t, boosted[0].FusedScore, 0.02)
}

func TestBoostCannotFlipStrongMatch(t *testing.T) {
	cfg := DefaultBoostConfig()
	strong := fusedResult("strong", "Unrelated title", "", "", 0.03)
	weak := fusedResult("weak", "kafka deployment guide", "kafka", "Home", 0.02)

	boosted := Boost(cfg, "kafka deployment", core.IntentFactual, []core.FusedResult{strong, weak})
	require.Len(t, boosted, 2)
	// Boosted weak score tops out at 0.02 * 1.3 = 0.026 < 0.03: order holds.
	assert.Equal(t, "strong", boosted[0].Payload.PageID)
}

func TestBoostReordersNearTies(t *testing.T) {
	cfg := DefaultBoostConfig()
	plain := fusedResult("plain", "Other doc", "", "", 0.0201)
	titled := fusedResult("titled", "kafka deployment", "", "", 0.02)

	boosted := Boost(cfg, "kafka deployment", core.IntentExploratory, []core.FusedResult{plain, titled})
	assert.Equal(t, "titled", boosted[0].Payload.PageID)
}

func TestHierarchyBoostOnlyForFactualAndNavigational(t *testing.T) {
	cfg := DefaultBoostConfig()
	// Near-root document, no title or heading overlap.
	r := fusedResult("a", "Unrelated", "", "Home / Page", 0.02)

	for _, intent := range []core.QueryIntent{core.IntentFactual, core.IntentNavigational} {
		boosted := Boost(cfg, "deploy query", intent, []core.FusedResult{r})
		assert.Greater(t, boosted[0].FusedScore, 0.02, string(intent))
	}
	for _, intent := range []core.QueryIntent{core.IntentHowTo, core.IntentExploratory} {
		boosted := Boost(cfg, "deploy query", intent, []core.FusedResult{r})
		assert.Equal(t, 0.02, boosted[0].FusedScore, string(intent))
	}
}

func TestBoostFallsBackToBreadcrumbForHeading(t *testing.T) {
	cfg := DefaultBoostConfig()
	r := fusedResult("a", "Other", "", "Home / kafka deployment / Config", 0.02)

	boosted := Boost(cfg, "kafka", core.IntentExploratory, []core.FusedResult{r})
	assert.Greater(t, boosted[0].FusedScore, 0.02)
}

func TestBoostEmptyInput(t *testing.T) {
	assert.Empty(t, Boost(DefaultBoostConfig(), "query", core.IntentFactual, nil))
}

func TestTermOverlap(t *testing.T) {
	terms := queryTerms("kafka deployment guide")
	assert.InDelta(t, 1.0, termOverlap(terms, "Kafka Deployment Guide"), 1e-9)
	assert.InDelta(t, 1.0/3, termOverlap(terms, "kafka tuning"), 1e-9)
	assert.Zero(t, termOverlap(terms, "postgres backups"))
	assert.Zero(t, termOverlap(nil, "anything"))
}

func TestHierarchyDepth(t *testing.T) {
	assert.Equal(t, -1, hierarchyDepth(""))
	assert.Equal(t, 0, hierarchyDepth("Root"))
	assert.Equal(t, 1, hierarchyDepth("Home / Page"))
	assert.Equal(t, 2, hierarchyDepth("Home / Section / Page"))
	assert.Equal(t, 1, hierarchyDepth("Home > Page"))
}
