package search

import (
	"context"

	"github.com/crowsnest-io/spyglass/internal/domain"
)

// Source is the uniform contract over one content collection. Implementations
// perform read-only I/O and must honor context deadlines.
type Source interface {
	// Type identifies the collection variant.
	Type() domain.SourceType

	// LexicalSearch matches the query terms against title and description.
	// Scores are term-overlap ratios in [0,1], never vector distances.
	LexicalSearch(ctx context.Context, terms []string, limit int) ([]domain.SearchResult, error)

	// VectorSearch returns items whose embedding similarity is at or above
	// threshold. Returns domain.ErrVectorUnavailable (wrapped) when the
	// source has no vector capability or the backing index is unreachable,
	// so callers can distinguish "no matches" from "can't search".
	VectorSearch(ctx context.Context, embedding []float32, threshold float64, limit int) ([]domain.SearchResult, error)

	// ExtractAll returns the source's full item snapshot, bounded by limit.
	// Feeds batch operations (duplicate detection, gap analysis), not the
	// live query path.
	ExtractAll(ctx context.Context, limit int) ([]domain.ContentItem, error)
}

// ResultCache is the optional short-lived result cache consumed by the
// retriever. Implementations must be safe for concurrent use.
type ResultCache interface {
	Get(key string) ([]domain.SearchResult, bool)
	Put(key string, results []domain.SearchResult)
}
