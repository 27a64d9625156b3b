// Package query turns raw search input into the canonical query
// representation consumed by the retriever.
package query

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/crowsnest-io/spyglass/internal/domain"
	"github.com/crowsnest-io/spyglass/internal/textmatch"
)

// ItemReader resolves reference items for (variant, id) query inputs.
type ItemReader interface {
	Get(ctx context.Context, typ domain.SourceType, id string) (domain.ContentItem, error)
}

// Input is either free text or a reference to an existing item.
type Input struct {
	Text string
	Ref  *Ref
}

// Ref identifies an existing content item used as the query.
type Ref struct {
	Type domain.SourceType
	ID   string
}

// Normalizer produces NormalizedQuery values. The embedder and item reader
// are optional; without an embedder every query degrades to lexical-only.
type Normalizer struct {
	embed  domain.Embedder
	items  ItemReader
	logger *zap.Logger
}

// New creates a normalizer. embed and items may be nil.
func New(embed domain.Embedder, items ItemReader, logger *zap.Logger) *Normalizer {
	return &Normalizer{embed: embed, items: items, logger: logger}
}

// Normalize canonicalizes the input. Embedding resolution failures are
// non-fatal: the query proceeds with no embedding and the retriever
// degrades, which is the documented fallback path.
func (n *Normalizer) Normalize(ctx context.Context, in Input) (domain.NormalizedQuery, error) {
	if in.Ref != nil {
		return n.normalizeRef(ctx, *in.Ref)
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return domain.NormalizedQuery{}, domain.ErrEmptyQuery
	}

	q := domain.NormalizedQuery{
		RawText: strings.ToLower(text),
		Terms:   textmatch.Terms(text),
	}
	q.Embedding = n.resolveEmbedding(ctx, text)
	return q, nil
}

func (n *Normalizer) normalizeRef(ctx context.Context, ref Ref) (domain.NormalizedQuery, error) {
	if n.items == nil {
		return domain.NormalizedQuery{}, fmt.Errorf("reference queries not configured: %w", domain.ErrItemNotFound)
	}
	if !ref.Type.Valid() || ref.ID == "" {
		return domain.NormalizedQuery{}, domain.ErrEmptyQuery
	}

	item, err := n.items.Get(ctx, ref.Type, ref.ID)
	if err != nil {
		return domain.NormalizedQuery{}, fmt.Errorf("resolve reference %s/%s: %w", ref.Type, ref.ID, err)
	}

	text := strings.TrimSpace(item.Title + " " + item.Description)
	if text == "" {
		return domain.NormalizedQuery{}, domain.ErrEmptyQuery
	}

	q := domain.NormalizedQuery{
		RawText: strings.ToLower(text),
		Terms:   textmatch.Terms(text),
	}
	if len(item.Embedding) > 0 {
		// Reuse the stored embedding instead of paying for a new one.
		q.Embedding = item.Embedding
		return q, nil
	}
	q.Embedding = n.resolveEmbedding(ctx, text)
	return q, nil
}

// resolveEmbedding returns nil on any failure; the condition is logged and
// drives the retriever's fallback state, never an error to the caller.
func (n *Normalizer) resolveEmbedding(ctx context.Context, text string) []float32 {
	if n.embed == nil {
		return nil
	}
	res, err := n.embed.Embed(ctx, text)
	if err != nil {
		n.logger.Warn("embedding unavailable, degrading to lexical search", zap.Error(err))
		return nil
	}
	return res.Embedding
}
