package domain

// SourceType tags which content collection an item belongs to.
type SourceType string

// Content collection variants.
const (
	TypeKeyword     SourceType = "keyword"
	TypePost        SourceType = "post"
	TypeCluster     SourceType = "cluster"
	TypeOpportunity SourceType = "opportunity"
)

// AllSourceTypes lists every variant in ranking priority order
// (used as the tie-break when merged scores are equal).
var AllSourceTypes = []SourceType{TypePost, TypeKeyword, TypeCluster, TypeOpportunity}

// Valid reports whether t is a known source type.
func (t SourceType) Valid() bool {
	switch t {
	case TypeKeyword, TypePost, TypeCluster, TypeOpportunity:
		return true
	}
	return false
}

// RankPriority returns the variant's tie-break priority; lower sorts first.
// Unknown types rank last.
func (t SourceType) RankPriority() int {
	for i, st := range AllSourceTypes {
		if st == t {
			return i
		}
	}
	return len(AllSourceTypes)
}

// ContentItem is a read-only snapshot of one item from a content collection.
// Embedding is nil when the source has not computed one.
type ContentItem struct {
	Type        SourceType
	ID          string
	Title       string
	Description string
	Metadata    Metadata
	Embedding   []float32
}
