// Package gaps scores keyword demand against existing content coverage to
// rank content opportunities.
package gaps

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/crowsnest-io/spyglass/internal/domain"
)

// KeywordCoverage is one keyword plus the number of content items already
// targeting it. The coverage join is the caller's responsibility.
type KeywordCoverage struct {
	KeywordID  string
	Demand     float64 // raw search volume, unbounded
	Difficulty float64 // 0–100
	Coverage   uint32
}

// Bounds holds the fixed normalization bounds. Out-of-range inputs are
// clamped, never rejected.
type Bounds struct {
	DemandCeiling float64 // raw demand mapped to 1.0
	PenaltyFloor  float64 // lower bound of the coverage penalty, in (0,1)
}

const difficultyCeiling = 100

// coverageDecay halves the above-floor penalty per covering item.
const coverageDecay = 0.5

// Analyzer ranks keywords by opportunity score.
type Analyzer struct {
	bounds Bounds
	logger *zap.Logger
}

// New creates an analyzer.
func New(bounds Bounds, logger *zap.Logger) *Analyzer {
	if bounds.DemandCeiling <= 0 {
		bounds.DemandCeiling = 100000
	}
	if bounds.PenaltyFloor <= 0 || bounds.PenaltyFloor >= 1 {
		bounds.PenaltyFloor = 0.2
	}
	return &Analyzer{bounds: bounds, logger: logger}
}

// AnalyzeGaps computes opportunity = norm(demand) · (1 − norm(difficulty)) ·
// penalty(coverage) and returns the keywords sorted by opportunity
// descending, ties broken by raw demand descending.
func (a *Analyzer) AnalyzeGaps(keywords []KeywordCoverage) []domain.GapEntry {
	entries := make([]domain.GapEntry, 0, len(keywords))
	for _, kw := range keywords {
		entries = append(entries, domain.GapEntry{
			KeywordID:   kw.KeywordID,
			Demand:      kw.Demand,
			Difficulty:  kw.Difficulty,
			Coverage:    kw.Coverage,
			Opportunity: a.score(kw),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Opportunity != entries[j].Opportunity {
			return entries[i].Opportunity > entries[j].Opportunity
		}
		if entries[i].Demand != entries[j].Demand {
			return entries[i].Demand > entries[j].Demand
		}
		return entries[i].KeywordID < entries[j].KeywordID
	})

	a.logger.Debug("gap analysis completed", zap.Int("keywords", len(entries)))
	return entries
}

func (a *Analyzer) score(kw KeywordCoverage) float64 {
	demand := clamp01(kw.Demand / a.bounds.DemandCeiling)
	difficulty := clamp01(kw.Difficulty / difficultyCeiling)
	return demand * (1 - difficulty) * a.penalty(kw.Coverage)
}

// penalty starts at 1.0 for uncovered keywords and decays toward the floor
// as coverage grows. The floor keeps covered keywords rankable: a covered
// keyword is still a candidate for a second angle, never fully excluded.
func (a *Analyzer) penalty(coverage uint32) float64 {
	floor := a.bounds.PenaltyFloor
	return floor + (1-floor)*math.Pow(coverageDecay, float64(coverage))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
