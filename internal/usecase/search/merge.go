package search

import (
	"sort"

	"github.com/crowsnest-io/spyglass/internal/domain"
)

type dedupeKey struct {
	typ domain.SourceType
	id  string
}

// mergeAndRank deduplicates the pooled results by (type, id), orders them by
// score descending and truncates to limit.
//
// When the same item arrived via both the vector and the lexical path, the
// higher-scoring occurrence wins. Ties are broken by variant priority, then
// by item id, so output order is deterministic for identical inputs.
func mergeAndRank(pool []domain.SearchResult, limit int) []domain.SearchResult {
	best := make(map[dedupeKey]domain.SearchResult, len(pool))
	for _, r := range pool {
		key := dedupeKey{typ: r.Type, id: r.ItemID}
		if prev, ok := best[key]; ok && prev.Score >= r.Score {
			continue
		}
		best[key] = r
	}

	merged := make([]domain.SearchResult, 0, len(best))
	for _, r := range best {
		merged = append(merged, r)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		pi, pj := merged[i].Type.RankPriority(), merged[j].Type.RankPriority()
		if pi != pj {
			return pi < pj
		}
		return merged[i].ItemID < merged[j].ItemID
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
