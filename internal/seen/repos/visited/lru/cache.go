package lru

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/rr-seen/internal/seen/domain"
	"github.com/haukened/rr-seen/internal/seen/repos/visited"
)

// verdictCache is an LRU-backed implementation of visited.VerdictCache.
// It tracks basic metrics: hits, misses, and evictions.
type verdictCache struct {
	lru       *lru.Cache[string, domain.Verdict]
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// disabledCache is a no-op VerdictCache used when size <= 0.
type disabledCache struct{}

// newLRU is a seam for tests.
var newLRU = func(size int, onEvict func(string, domain.Verdict)) (*lru.Cache[string, domain.Verdict], error) {
	return lru.NewWithEvict(size, onEvict)
}

// New creates a VerdictCache with the given capacity. If size <= 0, a
// disabled no-op cache is returned that always misses and tracks no metrics.
func New(size int) (visited.VerdictCache, error) {
	if size <= 0 {
		return &disabledCache{}, nil
	}

	c := &verdictCache{}
	// evictions include Purge-induced ones
	cache, err := newLRU(size, func(string, domain.Verdict) {
		c.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	c.lru = cache
	return c, nil
}

// Get looks up a verdict by key, counting the hit or miss.
func (c *verdictCache) Get(key string) (domain.Verdict, bool) {
	if v, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return v, true
	}
	c.misses.Add(1)
	return domain.Verdict{}, false
}

func (c *verdictCache) Put(key string, v domain.Verdict) { c.lru.Add(key, v) }

func (c *verdictCache) Len() int { return c.lru.Len() }

func (c *verdictCache) Purge() { c.lru.Purge() }

func (c *verdictCache) Stats() (hits, misses, evictions uint64) {
	return c.hits.Load(), c.misses.Load(), c.evictions.Load()
}

func (*disabledCache) Get(string) (domain.Verdict, bool) { return domain.Verdict{}, false }

func (*disabledCache) Put(string, domain.Verdict) {}

func (*disabledCache) Len() int { return 0 }

func (*disabledCache) Purge() {}

func (*disabledCache) Stats() (uint64, uint64, uint64) { return 0, 0, 0 }

var _ visited.VerdictCache = (*verdictCache)(nil)
var _ visited.VerdictCache = (*disabledCache)(nil)
