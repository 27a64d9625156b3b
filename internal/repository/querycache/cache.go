// Package querycache holds the short-lived search result cache: bounded
// entries, TTL eviction, safe for concurrent readers and writers.
package querycache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/crowsnest-io/spyglass/internal/domain"
)

// Cache implements the retriever's ResultCache contract over an expirable
// LRU. Stale entries are evicted on expiry, not rewritten on access.
type Cache struct {
	lru *expirable.LRU[string, []domain.SearchResult]
}

// New creates a cache bounded by maxEntries and ttl.
func New(maxEntries int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, []domain.SearchResult](maxEntries, nil, ttl)}
}

// Get returns the cached ranked list for key, if present and fresh.
func (c *Cache) Get(key string) ([]domain.SearchResult, bool) {
	results, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	// Callers receive their own slice header; entries are value snapshots.
	out := make([]domain.SearchResult, len(results))
	copy(out, results)
	return out, true
}

// Put stores a ranked list under key.
func (c *Cache) Put(key string, results []domain.SearchResult) {
	stored := make([]domain.SearchResult, len(results))
	copy(stored, results)
	c.lru.Add(key, stored)
}

// Len returns the number of live entries.
func (c *Cache) Len() int { return c.lru.Len() }
