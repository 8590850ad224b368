package domain

import "fmt"

// VerdictSource identifies which layer produced a Verdict.
type VerdictSource uint8

const (
	// SourceFilter is a definite negative from the bloom filter.
	SourceFilter VerdictSource = iota
	// SourceCache is a positive verdict served from the verdict cache.
	SourceCache
	// SourceStore is an answer from the authoritative visited store.
	SourceStore
)

// String returns a stable string representation of the source.
func (s VerdictSource) String() string {
	switch s {
	case SourceFilter:
		return "filter"
	case SourceCache:
		return "cache"
	case SourceStore:
		return "store"
	default:
		return fmt.Sprintf("VerdictSource(%d)", s)
	}
}

// Verdict is the outcome of checking a key against the visited set.
// Pure value type, no external dependencies.
type Verdict struct {
	Seen   bool
	Source VerdictSource
}

// IsSeen is a convenience accessor.
func (v Verdict) IsSeen() bool { return v.Seen }

// Unseen returns a not-visited verdict produced by source.
func Unseen(source VerdictSource) Verdict { return Verdict{Seen: false, Source: source} }

// SeenBy returns a visited verdict produced by source.
func SeenBy(source VerdictSource) Verdict { return Verdict{Seen: true, Source: source} }
