// Package spyglass is the hybrid semantic retrieval and content-deduplication
// engine: it merges vector and lexical matches across heterogeneous content
// collections, degrades gracefully when vector search is unavailable,
// detects near-duplicate content and scores content gaps.
package spyglass

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/crowsnest-io/spyglass/internal/domain"
	"github.com/crowsnest-io/spyglass/internal/usecase/duplicate"
	"github.com/crowsnest-io/spyglass/internal/usecase/gaps"
	"github.com/crowsnest-io/spyglass/internal/usecase/query"
	"github.com/crowsnest-io/spyglass/internal/usecase/search"
)

// Re-exported domain types: the engine's public vocabulary.
type (
	SourceType    = domain.SourceType
	ContentItem   = domain.ContentItem
	Metadata      = domain.Metadata
	SearchResult  = domain.SearchResult
	DuplicatePair = domain.DuplicatePair
	GapEntry      = domain.GapEntry
	Source        = search.Source

	// KeywordCoverage pairs a keyword with its content coverage count.
	KeywordCoverage = gaps.KeywordCoverage
	// GapBounds holds the gap analyzer's normalization bounds.
	GapBounds = gaps.Bounds
)

// Content collection variants.
const (
	TypeKeyword     = domain.TypeKeyword
	TypePost        = domain.TypePost
	TypeCluster     = domain.TypeCluster
	TypeOpportunity = domain.TypeOpportunity
)

// Result origin tags.
const (
	OriginPrimary  = domain.OriginPrimary
	OriginFallback = domain.OriginFallback
)

// Surfaced errors. Everything else degrades silently but observably.
var (
	ErrInvalidLimit          = domain.ErrInvalidLimit
	ErrAllSourcesUnavailable = domain.ErrAllSourcesUnavailable
	ErrBatchTooLarge         = domain.ErrBatchTooLarge
	ErrItemNotFound          = domain.ErrItemNotFound
)

// Query is the search input: free text or a reference to an existing item.
type Query struct {
	Text string
	Ref  *ItemRef
}

// ItemRef identifies an existing content item used as the query.
type ItemRef struct {
	Type SourceType
	ID   string
}

// Engine is the spyglass entry point. All operations are read-only over the
// configured content sources; the engine holds no state across requests
// beyond the optional result cache.
type Engine struct {
	normalizer *query.Normalizer
	retriever  *search.Service
	detector   *duplicate.Detector
	analyzer   *gaps.Analyzer
	sources    map[SourceType]Source
	defaults   SearchOptions
	logger     *zap.Logger
}

// New assembles an engine from the given options. At least one content
// source is required.
func New(opts ...Option) (*Engine, error) {
	cfg := newEngineConfig()
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.sources) == 0 {
		return nil, errors.New("spyglass: at least one content source required (use WithSources)")
	}

	byType := make(map[SourceType]Source, len(cfg.sources))
	for _, src := range cfg.sources {
		if _, dup := byType[src.Type()]; dup {
			return nil, fmt.Errorf("spyglass: duplicate source for type %q", src.Type())
		}
		byType[src.Type()] = src
	}

	retriever := search.New(cfg.sources, cfg.searchCfg, cfg.logger)
	if cfg.cache != nil {
		retriever = retriever.WithCache(cfg.cache)
	}

	return &Engine{
		normalizer: query.New(cfg.embedder, cfg.items, cfg.logger),
		retriever:  retriever,
		detector:   duplicate.New(cfg.duplicateCfg, cfg.logger),
		analyzer:   gaps.New(cfg.gapBounds, cfg.logger),
		sources:    byType,
		defaults:   cfg.defaults,
		logger:     cfg.logger,
	}, nil
}

// Search answers a free-text or reference-item query with one ranked list
// merged across all enabled sources. "No results" is an empty list, never
// an error; an empty query likewise recovers to an empty list. The only
// surfaced failures are ErrInvalidLimit and ErrAllSourcesUnavailable.
func (e *Engine) Search(ctx context.Context, q Query, opts *SearchOptions) ([]SearchResult, error) {
	resolved := e.defaults
	if opts != nil {
		resolved = *opts
	}

	in := query.Input{Text: q.Text}
	if q.Ref != nil {
		in.Ref = &query.Ref{Type: q.Ref.Type, ID: q.Ref.ID}
	}

	normalized, err := e.normalizer.Normalize(ctx, in)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyQuery) || errors.Is(err, domain.ErrItemNotFound) {
			e.logger.Debug("query normalization yielded no searchable input", zap.Error(err))
			return []SearchResult{}, nil
		}
		return nil, fmt.Errorf("normalize query: %w", err)
	}

	results, state, err := e.retriever.Search(ctx, &normalized, search.Options{
		Threshold: resolved.Threshold,
		Limit:     resolved.Limit,
		Sources:   resolved.Sources,
		Timeout:   resolved.Timeout,
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("search completed",
		zap.String("state", string(state)),
		zap.Int("results", len(results)),
	)
	if results == nil {
		results = []SearchResult{}
	}
	return results, nil
}

// FindDuplicates scans a homogeneous batch for near-duplicate pairs.
func (e *Engine) FindDuplicates(
	ctx context.Context, variant SourceType, batch []ContentItem,
) ([]DuplicatePair, error) {
	return e.detector.FindDuplicates(ctx, variant, batch)
}

// ScanSourceForDuplicates extracts a source's items and scans them. limit
// bounds the extract; the detector's batch cap still applies.
func (e *Engine) ScanSourceForDuplicates(
	ctx context.Context, variant SourceType, limit int,
) ([]DuplicatePair, error) {
	src, ok := e.sources[variant]
	if !ok {
		return nil, fmt.Errorf("spyglass: no source registered for type %q", variant)
	}
	items, err := src.ExtractAll(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("extract %s items: %w", variant, err)
	}
	return e.detector.FindDuplicates(ctx, variant, items)
}

// AnalyzeGaps ranks keywords by unmet demand. Coverage counts are supplied
// by the caller; the engine performs no joins.
func (e *Engine) AnalyzeGaps(keywords []KeywordCoverage) []GapEntry {
	return e.analyzer.AnalyzeGaps(keywords)
}
