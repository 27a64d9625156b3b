package search

import (
	"testing"

	"github.com/crowsnest-io/spyglass/internal/domain"
)

func TestAggregate(t *testing.T) {
	primary := outcome{state: sourcePrimary, results: []domain.SearchResult{{ItemID: "a"}}}
	degradedHits := outcome{state: sourceDegraded, results: []domain.SearchResult{{ItemID: "b"}}}
	degradedEmpty := outcome{state: sourceDegraded}
	failed := outcome{state: sourceFailed}

	tests := []struct {
		name     string
		outcomes []outcome
		want     State
	}{
		{"all primary", []outcome{primary, primary}, StatePrimary},
		{"mixed primary and degraded", []outcome{primary, degradedHits}, StatePrimary},
		{"degraded only", []outcome{degradedHits, degradedEmpty}, StateDegraded},
		{"degraded with failure", []outcome{degradedHits, failed}, StateDegraded},
		{"nothing anywhere", []outcome{degradedEmpty, degradedEmpty}, StateExhausted},
		{"empty", nil, StateExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := aggregate(tt.outcomes); got != tt.want {
				t.Fatalf("aggregate = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAllFailed(t *testing.T) {
	failed := outcome{state: sourceFailed}
	degraded := outcome{state: sourceDegraded}

	if !allFailed([]outcome{failed, failed}) {
		t.Error("every source failed should report true")
	}
	if allFailed([]outcome{failed, degraded}) {
		t.Error("a surviving source should report false")
	}
	if allFailed(nil) {
		t.Error("no outcomes is not a total failure")
	}
}

func TestDampen(t *testing.T) {
	results := []domain.SearchResult{
		{ItemID: "a", Score: 1.0},
		{ItemID: "b", Score: 0.5},
	}

	out := dampen(results, 0.6)
	if out[0].Score != 0.6 || out[1].Score != 0.3 {
		t.Fatalf("scores not scaled: %+v", out)
	}
	for _, r := range out {
		if r.Origin != domain.OriginFallback {
			t.Fatalf("dampened results must be fallback-tagged: %+v", r)
		}
	}
	// A perfect lexical score stays below a strong vector score.
	if out[0].Score >= 0.7 {
		t.Errorf("dampened ceiling %g must stay below typical primary scores", out[0].Score)
	}
}
