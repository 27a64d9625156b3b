package domain

// Origin tags how a search result was produced.
type Origin string

const (
	// OriginPrimary marks a match produced via vector similarity.
	OriginPrimary Origin = "primary"
	// OriginFallback marks a match produced via lexical term overlap after
	// vector search was unavailable or empty for that source.
	OriginFallback Origin = "fallback"
)

// SearchResult is a single ranked hit. Score is calibrated to [0,1] across
// all variants and origins so one merged list is meaningful.
type SearchResult struct {
	Type        SourceType
	ItemID      string
	Title       string
	Description string
	Score       float64
	Origin      Origin
	Metadata    Metadata
}

// NormalizedQuery is the canonical query representation produced by the
// normalizer. Embedding is nil when no embedding could be resolved; the
// retriever then degrades every source to lexical search.
type NormalizedQuery struct {
	RawText   string
	Terms     []string
	Embedding []float32
}

// HasEmbedding reports whether vector search is possible for this query.
func (q *NormalizedQuery) HasEmbedding() bool { return len(q.Embedding) > 0 }

// DuplicatePair reports two near-duplicate items of one variant.
// ItemA is always the lexicographically smaller id so a pair is never
// reported twice.
type DuplicatePair struct {
	Type       SourceType
	ItemA      string
	ItemB      string
	Similarity float64
}

// GapEntry scores one keyword's unmet demand.
type GapEntry struct {
	KeywordID   string
	Demand      float64
	Difficulty  float64
	Coverage    uint32
	Opportunity float64
}
