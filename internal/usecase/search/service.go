// Package search implements the multi-source retriever: concurrent fan-out
// over the enabled content sources, per-source vector→lexical fallback and
// the merged, calibrated ranking.
package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/crowsnest-io/spyglass/internal/domain"
	"github.com/crowsnest-io/spyglass/internal/metrics"
)

// Config holds the retriever defaults.
type Config struct {
	Threshold         float64       // min vector similarity for a primary hit
	DefaultLimit      int           // limit applied when options carry none
	SourceTimeout     time.Duration // per-source search budget
	FallbackDampening float64       // scale applied to fallback scores, in (0,1)
}

// Options are the caller-supplied knobs for one search request.
type Options struct {
	Threshold float64             // 0 → service default
	Limit     int                 // must be >= 1
	Sources   []domain.SourceType // nil → all registered sources
	Timeout   time.Duration       // 0 → caller context only
}

// Service fans a normalized query out to all enabled sources and merges the
// per-source contributions into one ranked list.
type Service struct {
	sources []Source
	cache   ResultCache
	cfg     Config
	logger  *zap.Logger
}

// New creates a retriever over the given sources.
func New(sources []Source, cfg Config, logger *zap.Logger) *Service {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.7
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = 2 * time.Second
	}
	if cfg.FallbackDampening <= 0 || cfg.FallbackDampening >= 1 {
		cfg.FallbackDampening = 0.6
	}
	return &Service{sources: sources, cfg: cfg, logger: logger}
}

// WithCache attaches an optional short-lived result cache.
func (s *Service) WithCache(c ResultCache) *Service {
	s.cache = c
	return s
}

// Search executes the fan-out and returns the merged ranked list plus the
// request-level retrieval state. An exhausted request returns an empty list
// and no error; only total unavailability of every source is an error.
func (s *Service) Search(
	ctx context.Context, q *domain.NormalizedQuery, opts Options,
) ([]domain.SearchResult, State, error) {
	if opts.Limit < 1 {
		return nil, StateExhausted, fmt.Errorf("limit must be >= 1, got %d: %w", opts.Limit, domain.ErrInvalidLimit)
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = s.cfg.Threshold
	}

	enabled := s.enabledSources(opts.Sources)
	if len(enabled) == 0 {
		return nil, StateExhausted, fmt.Errorf("no enabled sources: %w", domain.ErrAllSourcesUnavailable)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	key := cacheKey(q, threshold, opts.Limit, enabled)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			metrics.QueryCacheTotal.WithLabelValues("hit").Inc()
			return cached, aggregateFromResults(cached), nil
		}
		metrics.QueryCacheTotal.WithLabelValues("miss").Inc()
	}

	start := time.Now()

	outcomes := make([]outcome, len(enabled))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range enabled {
		g.Go(func() error {
			outcomes[i] = s.searchSource(gctx, src, q, threshold, opts.Limit)
			return nil
		})
	}
	_ = g.Wait() // source tasks never return errors; failures live in outcomes

	if allFailed(outcomes) {
		metrics.SearchRequestsTotal.WithLabelValues(string(StateExhausted), "error").Inc()
		return nil, StateExhausted, fmt.Errorf("every source failed: %w", domain.ErrAllSourcesUnavailable)
	}

	var pool []domain.SearchResult
	for _, o := range outcomes {
		pool = append(pool, o.results...)
	}

	ranked := mergeAndRank(pool, opts.Limit)
	state := aggregate(outcomes)

	metrics.SearchRequestsTotal.WithLabelValues(string(state), "success").Inc()
	metrics.SearchDuration.WithLabelValues(string(state)).Observe(time.Since(start).Seconds())

	if s.cache != nil {
		s.cache.Put(key, ranked)
	}

	return ranked, state, nil
}

// searchSource runs one source's vector and lexical searches concurrently
// and applies the per-source fallback rules to their joined outcome.
func (s *Service) searchSource(
	ctx context.Context, src Source, q *domain.NormalizedQuery, threshold float64, limit int,
) outcome {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SourceTimeout)
	defer cancel()

	name := string(src.Type())

	var (
		wg         sync.WaitGroup
		vecResults []domain.SearchResult
		vecErr     error
		lexResults []domain.SearchResult
		lexErr     error
	)

	if q.HasEmbedding() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t := time.Now()
			vecResults, vecErr = src.VectorSearch(ctx, q.Embedding, threshold, limit)
			metrics.SourceSearchDuration.WithLabelValues(name, "vector").Observe(time.Since(t).Seconds())
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.Now()
		lexResults, lexErr = src.LexicalSearch(ctx, q.Terms, limit)
		metrics.SourceSearchDuration.WithLabelValues(name, "lexical").Observe(time.Since(t).Seconds())
	}()

	wg.Wait()

	if q.HasEmbedding() && vecErr == nil && len(vecResults) > 0 {
		for i := range vecResults {
			vecResults[i].Origin = domain.OriginPrimary
		}
		return outcome{source: src.Type(), state: sourcePrimary, results: vecResults}
	}

	reason := degradeReason(ctx, q, vecErr)
	s.recordDegrade(src.Type(), reason, vecErr)

	if lexErr != nil {
		vectorUsable := q.HasEmbedding() && vecErr == nil
		if !vectorUsable {
			// Both paths errored: the source contributes nothing and counts
			// toward AllSourcesUnavailable.
			s.logger.Warn("source failed on both search paths",
				zap.String("source", name),
				zap.NamedError("vector_error", vecErr),
				zap.NamedError("lexical_error", lexErr),
			)
			metrics.SourceDegradeTotal.WithLabelValues(name, reasonError).Inc()
			return outcome{source: src.Type(), state: sourceFailed, reason: reasonError}
		}
		// Vector answered (empty) but lexical errored: degraded, zero results.
		s.logger.Warn("lexical fallback failed",
			zap.String("source", name), zap.Error(lexErr))
		return outcome{source: src.Type(), state: sourceDegraded, reason: reason}
	}

	return outcome{
		source:  src.Type(),
		state:   sourceDegraded,
		reason:  reason,
		results: dampen(lexResults, s.cfg.FallbackDampening),
	}
}

func degradeReason(ctx context.Context, q *domain.NormalizedQuery, vecErr error) string {
	switch {
	case !q.HasEmbedding():
		return reasonNoEmbedding
	case vecErr == nil:
		return reasonEmpty
	case errors.Is(vecErr, context.DeadlineExceeded) || ctx.Err() != nil:
		return reasonTimeout
	case errors.Is(vecErr, domain.ErrVectorUnavailable):
		return reasonUnavailable
	default:
		return reasonError
	}
}

func (s *Service) recordDegrade(src domain.SourceType, reason string, vecErr error) {
	metrics.SourceDegradeTotal.WithLabelValues(string(src), reason).Inc()
	s.logger.Debug("source degraded to lexical search",
		zap.String("source", string(src)),
		zap.String("reason", reason),
		zap.Error(vecErr),
	)
}

func (s *Service) enabledSources(want []domain.SourceType) []Source {
	if len(want) == 0 {
		return s.sources
	}
	set := make(map[domain.SourceType]struct{}, len(want))
	for _, t := range want {
		set[t] = struct{}{}
	}
	enabled := make([]Source, 0, len(want))
	for _, src := range s.sources {
		if _, ok := set[src.Type()]; ok {
			enabled = append(enabled, src)
		}
	}
	return enabled
}

// cacheKey derives the result cache key from the normalized query and the
// request shape: identical inputs share a key, anything else must not.
func cacheKey(q *domain.NormalizedQuery, threshold float64, limit int, enabled []Source) string {
	names := make([]string, 0, len(enabled))
	for _, src := range enabled {
		names = append(names, string(src.Type()))
	}
	sort.Strings(names)

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%g|%d|%t|%s",
		q.RawText, strings.Join(q.Terms, " "), threshold, limit,
		q.HasEmbedding(), strings.Join(names, ","),
	)
	return hex.EncodeToString(h.Sum(nil))
}

// aggregateFromResults re-derives the request state for cache hits, where
// the per-source outcomes are gone but the origin tags survive.
func aggregateFromResults(results []domain.SearchResult) State {
	if len(results) == 0 {
		return StateExhausted
	}
	for _, r := range results {
		if r.Origin == domain.OriginPrimary {
			return StatePrimary
		}
	}
	return StateDegraded
}
