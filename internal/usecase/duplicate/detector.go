// Package duplicate detects near-duplicate content pairs inside a
// homogeneous batch via token-overlap similarity.
package duplicate

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/crowsnest-io/spyglass/internal/domain"
	"github.com/crowsnest-io/spyglass/internal/metrics"
	"github.com/crowsnest-io/spyglass/internal/textmatch"
)

// Config holds detection settings.
type Config struct {
	Threshold        float64 // cross-item text pairs must score strictly above this
	KeywordThreshold float64 // near-exact bar applied to keyword batches instead
	MaxResults       int     // cap on reported pairs
	MaxBatchSize     int     // batches above this are rejected, not degraded
}

// Detector computes pairwise similarity over an item batch. The comparison
// is O(n²) over the batch; MaxBatchSize bounds the worst case.
type Detector struct {
	cfg    Config
	logger *zap.Logger
}

func (d *Detector) thresholdFor(variant domain.SourceType) float64 {
	if variant == domain.TypeKeyword {
		return d.cfg.KeywordThreshold
	}
	return d.cfg.Threshold
}

// New creates a detector.
func New(cfg Config, logger *zap.Logger) *Detector {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.5
	}
	if cfg.KeywordThreshold <= 0 {
		cfg.KeywordThreshold = 0.9
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 500
	}
	return &Detector{cfg: cfg, logger: logger}
}

// FindDuplicates reports item pairs whose token-overlap similarity exceeds
// the variant's threshold, sorted by similarity descending and capped at
// MaxResults. Keyword batches hold short phrases where half the tokens
// overlapping is routine, so they use the near-exact KeywordThreshold while
// every other variant uses the cross-item text threshold. Items whose token
// set is empty after filtering are skipped entirely so empty strings never
// produce spurious 100% matches.
func (d *Detector) FindDuplicates(
	ctx context.Context, variant domain.SourceType, batch []domain.ContentItem,
) ([]domain.DuplicatePair, error) {
	if len(batch) > d.cfg.MaxBatchSize {
		metrics.DuplicateScansTotal.WithLabelValues(string(variant), "rejected").Inc()
		return nil, fmt.Errorf("batch of %d exceeds cap %d: %w",
			len(batch), d.cfg.MaxBatchSize, domain.ErrBatchTooLarge)
	}

	type tokenized struct {
		id     string
		tokens map[string]struct{}
	}

	items := make([]tokenized, 0, len(batch))
	for _, item := range batch {
		tokens := textmatch.TokenSet(item.Title + " " + item.Description)
		if len(tokens) == 0 {
			continue
		}
		items = append(items, tokenized{id: item.ID, tokens: tokens})
	}

	threshold := d.thresholdFor(variant)

	var pairs []domain.DuplicatePair
	for i := 0; i < len(items); i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("duplicate scan cancelled: %w", err)
		}
		for j := i + 1; j < len(items); j++ {
			sim := textmatch.Overlap(items[i].tokens, items[j].tokens)
			if sim <= threshold {
				continue
			}
			a, b := items[i].id, items[j].id
			if a > b {
				a, b = b, a
			}
			pairs = append(pairs, domain.DuplicatePair{
				Type:       variant,
				ItemA:      a,
				ItemB:      b,
				Similarity: sim,
			})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].Similarity != pairs[j].Similarity {
			return pairs[i].Similarity > pairs[j].Similarity
		}
		if pairs[i].ItemA != pairs[j].ItemA {
			return pairs[i].ItemA < pairs[j].ItemA
		}
		return pairs[i].ItemB < pairs[j].ItemB
	})

	if len(pairs) > d.cfg.MaxResults {
		pairs = pairs[:d.cfg.MaxResults]
	}

	metrics.DuplicateScansTotal.WithLabelValues(string(variant), "success").Inc()
	d.logger.Debug("duplicate scan completed",
		zap.String("variant", string(variant)),
		zap.Int("batch_size", len(batch)),
		zap.Int("pairs", len(pairs)),
	)

	return pairs, nil
}
