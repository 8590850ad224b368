package visited

import "github.com/haukened/rr-seen/internal/seen/domain"

// BloomFilter is the minimal interface the repository needs from the
// in-memory filter. Implementations must be safe for concurrent use.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// VerdictCache caches positive verdicts by key with basic metrics.
type VerdictCache interface {
	Get(key string) (domain.Verdict, bool)
	Put(key string, v domain.Verdict)
	Len() int
	Purge()
	Stats() (hits, misses, evictions uint64)
}

// Store abstracts the authoritative exact visited-set.
// - Exists: presence of an exact key
// - Put: record a key with its first-visit time; re-putting keeps the original time
// - ForEach: iterate all keys until visit returns false
// - VisitedAt: first-visit unix time of a key, if recorded
// - Stats: counts and metadata; Close: release resources
type Store interface {
	Exists(key string) (bool, error)
	Put(key string, visitedUnix int64) error
	ForEach(visit func(key string) bool) error
	VisitedAt(key string) (int64, bool, error)
	Stats() StoreStats
	Close() error
}

// Repository is the composition layer that wires filter → cache → store.
// Check answers without side effects; Visit checks and records atomically;
// Warm loads every stored key into the filter.
type Repository interface {
	Check(key string) domain.Verdict
	Visit(key string) (bool, error)
	Warm() (int, error)
	RepoStats() RepoStats
}
