// Package item resolves individual content items, including their stored
// embeddings, for reference-item queries.
package item

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/crowsnest-io/spyglass/internal/db"
	"github.com/crowsnest-io/spyglass/internal/domain"
)

const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldVector      = "vector"
)

// store is the consumer interface for item reads (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Repo reads content items from their backing hashes.
type Repo struct {
	store  store
	prefix string
}

// New creates an item repository.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Get loads one item. The stored embedding is decoded when present so the
// normalizer can reuse it instead of re-embedding.
func (r *Repo) Get(ctx context.Context, typ domain.SourceType, id string) (domain.ContentItem, error) {
	key := fmt.Sprintf("%s%s:%s", r.prefix, typ, id)

	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ContentItem{}, fmt.Errorf("%s/%s: %w", typ, id, domain.ErrItemNotFound)
		}
		return domain.ContentItem{}, fmt.Errorf("get item %s/%s: %w", typ, id, err)
	}

	item := domain.ContentItem{
		Type:        typ,
		ID:          id,
		Title:       fields[fieldTitle],
		Description: fields[fieldDescription],
	}

	if raw, ok := fields[fieldVector]; ok && raw != "" {
		if vec, err := bytesToVector([]byte(raw)); err == nil {
			item.Embedding = vec
		}
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		switch name {
		case fieldTitle, fieldDescription, fieldVector:
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names) // hash iteration order is random; metadata order must not be
	for _, name := range names {
		item.Metadata = item.Metadata.Set(name, fields[name])
	}

	return item, nil
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector data: len=%d", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
