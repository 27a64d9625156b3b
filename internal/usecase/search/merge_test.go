package search

import (
	"testing"

	"github.com/crowsnest-io/spyglass/internal/domain"
)

func TestMergeAndRank_DedupeKeepsHigherScore(t *testing.T) {
	pool := []domain.SearchResult{
		{Type: domain.TypeKeyword, ItemID: "k1", Score: 0.4, Origin: domain.OriginFallback},
		{Type: domain.TypeKeyword, ItemID: "k1", Score: 0.9, Origin: domain.OriginPrimary},
	}

	merged := mergeAndRank(pool, 10)
	if len(merged) != 1 {
		t.Fatalf("expected 1 result after dedupe, got %d", len(merged))
	}
	if merged[0].Score != 0.9 || merged[0].Origin != domain.OriginPrimary {
		t.Fatalf("higher-scoring occurrence must win, got %+v", merged[0])
	}
}

func TestMergeAndRank_SameIDDifferentTypesAreDistinct(t *testing.T) {
	pool := []domain.SearchResult{
		{Type: domain.TypeKeyword, ItemID: "42", Score: 0.8},
		{Type: domain.TypePost, ItemID: "42", Score: 0.7},
	}

	if merged := mergeAndRank(pool, 10); len(merged) != 2 {
		t.Fatalf("ids only collide within a variant, got %d results", len(merged))
	}
}

func TestMergeAndRank_TieBrokenByVariantPriority(t *testing.T) {
	pool := []domain.SearchResult{
		{Type: domain.TypeOpportunity, ItemID: "o1", Score: 0.5},
		{Type: domain.TypePost, ItemID: "p1", Score: 0.5},
		{Type: domain.TypeKeyword, ItemID: "k1", Score: 0.5},
		{Type: domain.TypeCluster, ItemID: "c1", Score: 0.5},
	}

	merged := mergeAndRank(pool, 10)
	want := []domain.SourceType{domain.TypePost, domain.TypeKeyword, domain.TypeCluster, domain.TypeOpportunity}
	for i, typ := range want {
		if merged[i].Type != typ {
			t.Fatalf("position %d = %s, want %s (full order %+v)", i, merged[i].Type, typ, merged)
		}
	}
}

func TestMergeAndRank_FullTieBrokenByItemID(t *testing.T) {
	pool := []domain.SearchResult{
		{Type: domain.TypePost, ItemID: "b", Score: 0.5},
		{Type: domain.TypePost, ItemID: "a", Score: 0.5},
	}

	merged := mergeAndRank(pool, 10)
	if merged[0].ItemID != "a" || merged[1].ItemID != "b" {
		t.Fatalf("full ties must order by item id, got %+v", merged)
	}
}

func TestMergeAndRank_Deterministic(t *testing.T) {
	pool := []domain.SearchResult{
		{Type: domain.TypeKeyword, ItemID: "k2", Score: 0.7},
		{Type: domain.TypePost, ItemID: "p1", Score: 0.7},
		{Type: domain.TypeKeyword, ItemID: "k1", Score: 0.9},
		{Type: domain.TypeCluster, ItemID: "c1", Score: 0.3},
	}

	first := mergeAndRank(append([]domain.SearchResult(nil), pool...), 10)
	for run := 0; run < 20; run++ {
		again := mergeAndRank(append([]domain.SearchResult(nil), pool...), 10)
		for i := range first {
			if first[i].Type != again[i].Type || first[i].ItemID != again[i].ItemID {
				t.Fatalf("run %d: order diverged at %d: %+v vs %+v", run, i, first[i], again[i])
			}
		}
	}
}

func TestMergeAndRank_Truncates(t *testing.T) {
	pool := []domain.SearchResult{
		{Type: domain.TypeKeyword, ItemID: "k1", Score: 0.9},
		{Type: domain.TypeKeyword, ItemID: "k2", Score: 0.8},
		{Type: domain.TypeKeyword, ItemID: "k3", Score: 0.7},
	}

	merged := mergeAndRank(pool, 2)
	if len(merged) != 2 || merged[0].ItemID != "k1" || merged[1].ItemID != "k2" {
		t.Fatalf("expected top 2 by score, got %+v", merged)
	}
}
