package rank

import (
	"slices"
	"strings"

	"github.com/poiesic/retrievit/core"
)

// BoostConfig holds the metadata boost weights. Boosting is additive and
// bounded: the total bonus never exceeds Ceiling times the pre-boost score,
// so structural signals reorder near-ties but cannot lift a weak match over
// a strong one.
type BoostConfig struct {
	// TitleWeight scales the bonus for query-term overlap with the page title.
	TitleWeight float64
	// HeadingWeight scales the bonus for overlap with the heading path or
	// breadcrumb.
	HeadingWeight float64
	// HierarchyWeight scales the bonus for documents near the hierarchy root.
	// Applied only for factual and navigational intents.
	HierarchyWeight float64
	// Ceiling caps the total bonus as a fraction of the pre-boost score.
	Ceiling float64
}

// DefaultBoostConfig returns the tuned boost defaults.
func DefaultBoostConfig() BoostConfig {
	return BoostConfig{
		TitleWeight:     0.3,
		HeadingWeight:   0.2,
		HierarchyWeight: 0.05,
		Ceiling:         0.3,
	}
}

// Boost adds structural bonuses to fused scores and re-sorts.
// Pure function of the results and their own metadata; scores never
// decrease.
func Boost(cfg BoostConfig, query string, intent core.QueryIntent, results []core.FusedResult) []core.FusedResult {
	terms := queryTerms(query)
	if len(results) == 0 {
		return results
	}

	boosted := make([]core.FusedResult, len(results))
	copy(boosted, results)

	for i := range boosted {
		r := &boosted[i]
		score := r.FusedScore

		var bonus float64
		if overlap := termOverlap(terms, r.Payload.Title); overlap > 0 {
			bonus += score * cfg.TitleWeight * overlap
		}
		heading := r.Payload.HeadingPath
		if heading == "" {
			heading = r.Payload.Breadcrumb
		}
		if overlap := termOverlap(terms, heading); overlap > 0 {
			bonus += score * cfg.HeadingWeight * overlap
		}
		if intent == core.IntentFactual || intent == core.IntentNavigational {
			if depth := hierarchyDepth(r.Payload.Breadcrumb); depth >= 0 && depth <= 1 {
				bonus += score * cfg.HierarchyWeight
			}
		}

		if ceiling := score * cfg.Ceiling; bonus > ceiling {
			bonus = ceiling
		}
		r.FusedScore = score + bonus
	}

	slices.SortStableFunc(boosted, func(a, b core.FusedResult) int {
		if a.FusedScore > b.FusedScore {
			return -1
		}
		if a.FusedScore < b.FusedScore {
			return 1
		}
		return 0
	})
	return boosted
}

// queryTerms splits a query into lower-cased terms, dropping single-letter
// tokens that would match spuriously.
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > 1 {
			terms = append(terms, f)
		}
	}
	return terms
}

// termOverlap returns the fraction of query terms present in the text.
func termOverlap(terms []string, text string) float64 {
	if len(terms) == 0 || text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

// hierarchyDepth counts breadcrumb segments above the document itself.
// Returns -1 when no breadcrumb is present.
func hierarchyDepth(breadcrumb string) int {
	if breadcrumb == "" {
		return -1
	}
	sep := " / "
	if !strings.Contains(breadcrumb, sep) {
		if strings.Contains(breadcrumb, " > ") {
			sep = " > "
		} else {
			return 0
		}
	}
	return strings.Count(breadcrumb, sep)
}
