package spyglass

import (
	"time"

	"go.uber.org/zap"

	"github.com/crowsnest-io/spyglass/internal/domain"
	"github.com/crowsnest-io/spyglass/internal/repository/querycache"
	"github.com/crowsnest-io/spyglass/internal/usecase/duplicate"
	"github.com/crowsnest-io/spyglass/internal/usecase/gaps"
	"github.com/crowsnest-io/spyglass/internal/usecase/query"
	"github.com/crowsnest-io/spyglass/internal/usecase/search"
)

// Engine-level configuration types, aliased so callers outside the module
// can construct them.
type (
	// RetrieverConfig holds retriever defaults (threshold, per-source
	// timeout, fallback dampening).
	RetrieverConfig = search.Config
	// DuplicateConfig holds duplicate detection settings.
	DuplicateConfig = duplicate.Config
)

// SearchOptions are the per-request retrieval knobs.
type SearchOptions struct {
	Threshold float64       // min vector similarity; 0 → engine default
	Limit     int           // must be >= 1, else ErrInvalidLimit
	Sources   []SourceType  // nil → all registered sources
	Timeout   time.Duration // whole-query deadline; 0 → caller context only
}

// DefaultSearchOptions returns the options applied when Search receives nil.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{Limit: 20}
}

type engineConfig struct {
	sources      []Source
	embedder     domain.Embedder
	items        query.ItemReader
	cache        search.ResultCache
	searchCfg    search.Config
	duplicateCfg duplicate.Config
	gapBounds    gaps.Bounds
	defaults     SearchOptions
	logger       *zap.Logger
}

func newEngineConfig() *engineConfig {
	return &engineConfig{
		defaults: DefaultSearchOptions(),
		logger:   zap.NewNop(),
	}
}

// Option configures the engine.
type Option func(*engineConfig)

// WithSources registers the content source adapters, one per variant.
func WithSources(sources ...Source) Option {
	return func(c *engineConfig) { c.sources = append(c.sources, sources...) }
}

// WithEmbedder sets the embedding provider. Without one, every query runs
// lexical-only.
func WithEmbedder(e domain.Embedder) Option {
	return func(c *engineConfig) { c.embedder = e }
}

// WithItemReader enables reference-item queries.
func WithItemReader(r query.ItemReader) Option {
	return func(c *engineConfig) { c.items = r }
}

// WithLogger sets the logger (default: no-op).
func WithLogger(l *zap.Logger) Option {
	return func(c *engineConfig) { c.logger = l }
}

// WithResultCache enables the bounded TTL result cache.
func WithResultCache(maxEntries int, ttl time.Duration) Option {
	return func(c *engineConfig) { c.cache = querycache.New(maxEntries, ttl) }
}

// WithRetrieverConfig overrides the retriever defaults (threshold, per-source
// timeout, fallback dampening).
func WithRetrieverConfig(cfg search.Config) Option {
	return func(c *engineConfig) { c.searchCfg = cfg }
}

// WithDuplicateConfig overrides duplicate detection defaults.
func WithDuplicateConfig(cfg duplicate.Config) Option {
	return func(c *engineConfig) { c.duplicateCfg = cfg }
}

// WithGapBounds overrides the gap analyzer's normalization bounds.
func WithGapBounds(b gaps.Bounds) Option {
	return func(c *engineConfig) { c.gapBounds = b }
}

// WithDefaultSearchOptions overrides the options used when Search gets nil.
func WithDefaultSearchOptions(opts SearchOptions) Option {
	return func(c *engineConfig) { c.defaults = opts }
}
