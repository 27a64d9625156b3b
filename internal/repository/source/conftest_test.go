package source

import (
	"context"

	"github.com/crowsnest-io/spyglass/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	knnFn  func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	textFn func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	listFn func(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)

	lastKNN  *db.KNNQuery
	lastText *db.TextQuery
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.lastKNN = q
	if m.knnFn != nil {
		return m.knnFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	m.lastText = q
	if m.textFn != nil {
		return m.textFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchList(
	ctx context.Context, index, query string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	if m.listFn != nil {
		return m.listFn(ctx, index, query, offset, limit, fields)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) IndexExists(_ context.Context, _ string) (bool, error) {
	return true, nil
}

func entry(key string, score float64, title string) db.SearchEntry {
	return db.SearchEntry{
		Key:   key,
		Score: score,
		Fields: map[string]string{
			fieldTitle: title,
		},
	}
}
