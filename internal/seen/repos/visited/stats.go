package visited

// StoreStats captures high-level counts and metadata for the persistent store.
type StoreStats struct {
	Keys        uint64 // number of visited keys
	UpdatedUnix int64  // seconds since epoch of the last write (0 if never)
}

// RepoStats exposes repository-level counters and underlying store stats.
// All fields are best-effort snapshots and may be updated concurrently.
type RepoStats struct {
	Checks          uint64 // total Check and Visit lookups
	FilterNegatives uint64 // lookups answered by the filter alone
	CacheHits       uint64
	CacheMisses     uint64
	CacheEvictions  uint64
	StoreErrors     uint64
	Visited         uint64 // keys newly recorded since construction
	Store           StoreStats
}
