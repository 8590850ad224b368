package lru

import (
	"errors"
	"testing"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/rr-seen/internal/seen/domain"
)

func TestVerdictCache_HitMissAndPut(t *testing.T) {
	c, err := New(2)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, ok := c.Get("a1"); ok {
		t.Fatalf("expected miss before put")
	}
	c.Put("a1", domain.SeenBy(domain.SourceCache))

	got, ok := c.Get("a1")
	if !ok || !got.Seen || got.Source != domain.SourceCache {
		t.Fatalf("unexpected get: ok=%v got=%+v", ok, got)
	}
	hits, misses, _ := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("stats hits=%d misses=%d; want 1/1", hits, misses)
	}
}

func TestVerdictCache_EvictionAndLen(t *testing.T) {
	c, err := New(2)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	c.Put("a", domain.SeenBy(domain.SourceCache))
	c.Put("b", domain.SeenBy(domain.SourceCache))
	c.Put("c", domain.SeenBy(domain.SourceCache))
	if got := c.Len(); got != 2 {
		t.Fatalf("len=%d want=2 after eviction", got)
	}
	if _, ok := c.Get("a"); ok {
		t.Fatalf("least recently used entry not evicted")
	}
	if _, _, ev := c.Stats(); ev != 1 {
		t.Fatalf("evictions=%d want=1", ev)
	}
}

func TestVerdictCache_PurgeCountsEvictions(t *testing.T) {
	c, err := New(3)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	c.Put("a", domain.SeenBy(domain.SourceCache))
	c.Put("b", domain.SeenBy(domain.SourceCache))
	c.Purge()
	if got := c.Len(); got != 0 {
		t.Fatalf("len=%d want=0 after purge", got)
	}
	if _, _, ev := c.Stats(); ev != 2 {
		t.Fatalf("evictions=%d want=2 after purge", ev)
	}
}

func TestVerdictCache_Disabled(t *testing.T) {
	c, err := New(0)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	c.Put("x", domain.SeenBy(domain.SourceCache))
	if _, ok := c.Get("x"); ok {
		t.Fatalf("expected miss in disabled cache")
	}
	if got := c.Len(); got != 0 {
		t.Fatalf("len=%d want=0 for disabled", got)
	}
	c.Purge()
	if h, m, e := c.Stats(); h+m+e != 0 {
		t.Fatalf("disabled cache tracked stats: %d %d %d", h, m, e)
	}
}

func TestNewLRU_Error(t *testing.T) {
	orig := newLRU
	newLRU = func(int, func(string, domain.Verdict)) (*lru.Cache[string, domain.Verdict], error) {
		return nil, errors.New("cache creation error")
	}
	defer func() { newLRU = orig }()

	if _, err := New(1); err == nil {
		t.Fatalf("expected error but got nil")
	}
}
