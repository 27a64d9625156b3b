// Package source implements the ContentSource adapter over a Redis 8 FT
// index. One Repo serves one collection variant; the surrounding application
// owns the data and the indexes, the adapter only reads.
package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/crowsnest-io/spyglass/internal/db"
	"github.com/crowsnest-io/spyglass/internal/domain"
	"github.com/crowsnest-io/spyglass/internal/textmatch"
)

// lexicalCandidateFactor over-fetches full-text candidates before local
// overlap rescoring, which can reorder the backend's ranking.
const lexicalCandidateFactor = 4

// store is the consumer interface for source searches (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo adapts one content collection to the search.Source contract.
type Repo struct {
	store  store
	typ    domain.SourceType
	prefix string
}

// New creates a source adapter for one variant. prefix is the application's
// key namespace, e.g. "spyglass:".
func New(s store, typ domain.SourceType, prefix string) *Repo {
	return &Repo{store: s, typ: typ, prefix: prefix}
}

// Type identifies the collection variant.
func (r *Repo) Type() domain.SourceType { return r.typ }

func (r *Repo) indexName() string {
	return fmt.Sprintf("%s%s:idx", r.prefix, r.typ)
}

func (r *Repo) keyPrefix() string {
	return fmt.Sprintf("%s%s:", r.prefix, r.typ)
}

// VectorSearch runs a KNN search and keeps hits at or above threshold.
// A missing index or unreachable backend maps to domain.ErrVectorUnavailable
// so the retriever can distinguish "can't search" from "no matches".
func (r *Repo) VectorSearch(
	ctx context.Context, embedding []float32, threshold float64, limit int,
) ([]domain.SearchResult, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(),
		Vector:       embedding,
		K:            limit,
		ReturnFields: returnFields(r.typ),
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("%s has no vector index: %w", r.typ, domain.ErrVectorUnavailable)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("vector search %s: %w", r.typ, err)
		}
		return nil, fmt.Errorf("vector search %s: %v: %w", r.typ, err, domain.ErrVectorUnavailable)
	}

	results := make([]domain.SearchResult, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		if entry.Score < threshold {
			continue
		}
		id := strings.TrimPrefix(entry.Key, r.keyPrefix())
		results = append(results, entryToResult(r.typ, id, entry))
	}
	return results, nil
}

// LexicalSearch fetches full-text candidates and rescores them locally by
// term coverage over title+description. The backend's relevance score is
// only used to pick candidates; the returned score is always the overlap
// ratio, never a distance.
func (r *Repo) LexicalSearch(
	ctx context.Context, terms []string, limit int,
) ([]domain.SearchResult, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	sr, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName:    r.indexName(),
		Terms:        terms,
		TopK:         limit * lexicalCandidateFactor,
		ReturnFields: returnFields(r.typ),
	})
	if err != nil {
		return nil, fmt.Errorf("lexical search %s: %w", r.typ, err)
	}

	results := make([]domain.SearchResult, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, r.keyPrefix())
		res := entryToResult(r.typ, id, entry)
		res.Score = textmatch.TermCoverage(terms, res.Title+" "+res.Description)
		if res.Score <= 0 {
			continue
		}
		results = append(results, res)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ItemID < results[j].ItemID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ExtractAll returns up to limit items of the collection for batch
// operations (duplicate scans, gap analysis input).
func (r *Repo) ExtractAll(ctx context.Context, limit int) ([]domain.ContentItem, error) {
	sr, err := r.store.SearchList(ctx, r.indexName(), "*", 0, limit, returnFields(r.typ))
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", r.typ, err)
	}

	items := make([]domain.ContentItem, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, r.keyPrefix())
		items = append(items, entryToItem(r.typ, id, entry))
	}
	return items, nil
}
