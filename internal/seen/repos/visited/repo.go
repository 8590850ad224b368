package visited

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/haukened/rr-seen/internal/seen/common/clock"
	"github.com/haukened/rr-seen/internal/seen/common/log"
	"github.com/haukened/rr-seen/internal/seen/domain"
)

var ErrMissingDependency = errors.New("visited: missing dependency")

// Options configures a repository.
type Options struct {
	Store  Store
	Cache  VerdictCache
	Filter BloomFilter
	Clock  clock.Clock
	Logger log.Logger
}

// repository implements Repository by composing a Store, a BloomFilter and a
// VerdictCache. Reads run filter → cache → store; Visit is serialised so that
// check-and-record is atomic across goroutines.
type repository struct {
	visitMu sync.Mutex
	store   Store
	cache   VerdictCache
	bloom   BloomFilter
	clock   clock.Clock
	logger  log.Logger

	checks      atomic.Uint64
	negatives   atomic.Uint64
	storeErrors atomic.Uint64
	visited     atomic.Uint64
}

// NewRepository constructs a Repository. Store, Cache and Filter are required;
// Clock and Logger default to the wall clock and the global logger.
func NewRepository(opts Options) (Repository, error) {
	switch {
	case opts.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrMissingDependency)
	case opts.Cache == nil:
		return nil, fmt.Errorf("%w: cache", ErrMissingDependency)
	case opts.Filter == nil:
		return nil, fmt.Errorf("%w: filter", ErrMissingDependency)
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	return &repository{
		store:  opts.Store,
		cache:  opts.Cache,
		bloom:  opts.Filter,
		clock:  opts.Clock,
		logger: opts.Logger,
	}, nil
}

// Check returns a Verdict for key.
// Policy: on store errors, report unseen.
func (r *repository) Check(key string) domain.Verdict {
	v, _ := r.lookup(key)
	return v
}

// Visit records key if it has not been visited and reports whether it was new.
// The store is written before the filter and the cache.
func (r *repository) Visit(key string) (bool, error) {
	r.visitMu.Lock()
	defer r.visitMu.Unlock()

	v, err := r.lookup(key)
	if err != nil {
		return false, err
	}
	if v.Seen {
		return false, nil
	}
	if err := r.store.Put(key, r.clock.Now().Unix()); err != nil {
		r.storeErrors.Add(1)
		return false, fmt.Errorf("record visit: %w", err)
	}
	r.bloom.Add([]byte(key))
	r.cache.Put(key, domain.SeenBy(domain.SourceCache))
	r.visited.Add(1)
	return true, nil
}

// Warm adds every key in the store to the filter and returns how many were
// loaded. The filter is in-memory only, so this runs once at startup.
func (r *repository) Warm() (int, error) {
	n := 0
	err := r.store.ForEach(func(key string) bool {
		r.bloom.Add([]byte(key))
		n++
		return true
	})
	if err != nil {
		return n, fmt.Errorf("warm filter: %w", err)
	}
	r.logger.Debug(map[string]any{"keys": n}, "Visited filter warmed from store")
	return n, nil
}

// RepoStats returns counters and a store snapshot.
func (r *repository) RepoStats() RepoStats {
	hits, misses, evictions := r.cache.Stats()
	return RepoStats{
		Checks:          r.checks.Load(),
		FilterNegatives: r.negatives.Load(),
		CacheHits:       hits,
		CacheMisses:     misses,
		CacheEvictions:  evictions,
		StoreErrors:     r.storeErrors.Load(),
		Visited:         r.visited.Load(),
		Store:           r.store.Stats(),
	}
}

// lookup runs the read pipeline. The returned error is the store error, if
// any; the verdict is unseen in that case.
func (r *repository) lookup(key string) (domain.Verdict, error) {
	r.checks.Add(1)
	// 1) checkFilter: definite negative skips everything else
	if !r.bloom.MightContain([]byte(key)) {
		r.negatives.Add(1)
		return domain.Unseen(domain.SourceFilter), nil
	}
	// 2) checkCache: only positives are cached
	if v, ok := r.cache.Get(key); ok {
		return v, nil
	}
	// 3) checkStore
	ok, err := r.store.Exists(key)
	if err != nil {
		r.storeErrors.Add(1)
		r.logger.Warn(map[string]any{"key": key, "error": err}, "Visited store lookup failed")
		return domain.Unseen(domain.SourceStore), fmt.Errorf("store lookup: %w", err)
	}
	if !ok {
		return domain.Unseen(domain.SourceStore), nil
	}
	// 4) updateCache
	r.cache.Put(key, domain.SeenBy(domain.SourceCache))
	return domain.SeenBy(domain.SourceStore), nil
}
