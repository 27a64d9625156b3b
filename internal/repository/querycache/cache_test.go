package querycache

import (
	"testing"
	"time"

	"github.com/crowsnest-io/spyglass/internal/domain"
)

func TestCache_RoundTrip(t *testing.T) {
	c := New(10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("empty cache must miss")
	}

	results := []domain.SearchResult{{Type: domain.TypeKeyword, ItemID: "k1", Score: 0.9}}
	c.Put("q1", results)

	got, ok := c.Get("q1")
	if !ok {
		t.Fatal("expected a hit")
	}
	if len(got) != 1 || got[0].ItemID != "k1" {
		t.Fatalf("got %+v", got)
	}
}

func TestCache_GetReturnsCopy(t *testing.T) {
	c := New(10, time.Minute)
	c.Put("q1", []domain.SearchResult{{ItemID: "k1", Score: 0.9}})

	first, _ := c.Get("q1")
	first[0].Score = 0.1

	second, _ := c.Get("q1")
	if second[0].Score != 0.9 {
		t.Fatal("mutating a returned slice must not corrupt the cache")
	}
}

func TestCache_PutCopiesInput(t *testing.T) {
	c := New(10, time.Minute)
	results := []domain.SearchResult{{ItemID: "k1", Score: 0.9}}
	c.Put("q1", results)

	results[0].Score = 0.1

	got, _ := c.Get("q1")
	if got[0].Score != 0.9 {
		t.Fatal("mutating the caller's slice must not corrupt the cache")
	}
}

func TestCache_EvictsOldestBeyondCapacity(t *testing.T) {
	c := New(2, time.Minute)
	c.Put("a", nil)
	c.Put("b", nil)
	c.Put("c", nil)

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("oldest entry should have been evicted")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(10, 10*time.Millisecond)
	c.Put("q1", []domain.SearchResult{{ItemID: "k1"}})

	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("q1"); ok {
		t.Fatal("entry should have expired")
	}
}
