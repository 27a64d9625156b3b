package search

import "github.com/crowsnest-io/spyglass/internal/domain"

// State is the request-level retrieval state.
type State string

const (
	// StatePrimary: at least one source answered with vector results.
	StatePrimary State = "primary"
	// StateDegraded: no vector results anywhere, but lexical results exist.
	StateDegraded State = "degraded"
	// StateExhausted: no results from any source by any method. Terminal for
	// the request; callers get an empty ranked list, not an error.
	StateExhausted State = "exhausted"
)

// sourceState is the per-source outcome of one retrieval attempt.
type sourceState int

const (
	sourcePrimary sourceState = iota
	sourceDegraded
	sourceFailed
)

// Degrade reasons recorded per source.
const (
	reasonNoEmbedding = "no_embedding"
	reasonUnavailable = "unavailable"
	reasonTimeout     = "timeout"
	reasonEmpty       = "empty"
	reasonError       = "error"
)

// outcome is one source's contribution to the result pool.
type outcome struct {
	source  domain.SourceType
	state   sourceState
	reason  string
	results []domain.SearchResult
}

// aggregate derives the request state from the per-source outcomes.
// The Primary→Degraded transition is per-source, so a mixed response
// (primary-tagged and fallback-tagged entries together) is still Primary.
func aggregate(outcomes []outcome) State {
	anyResults := false
	anyPrimary := false
	for _, o := range outcomes {
		if len(o.results) > 0 {
			anyResults = true
		}
		if o.state == sourcePrimary {
			anyPrimary = true
		}
	}
	switch {
	case anyPrimary:
		return StatePrimary
	case anyResults:
		return StateDegraded
	default:
		return StateExhausted
	}
}

// allFailed reports whether every source failed outright (both search paths
// errored), which is the only condition that fails the whole query.
func allFailed(outcomes []outcome) bool {
	for _, o := range outcomes {
		if o.state != sourceFailed {
			return false
		}
	}
	return len(outcomes) > 0
}

// dampen rescales fallback-tagged scores into a capped sub-range so that
// lexical-only matches never outrank high-confidence vector matches in a
// mixed response. factor is always below 1.
func dampen(results []domain.SearchResult, factor float64) []domain.SearchResult {
	for i := range results {
		results[i].Origin = domain.OriginFallback
		results[i].Score *= factor
	}
	return results
}
