package filter

import "sync"

// Locked guards a Filter with a read/write mutex: one writer, any number of
// readers. It is the form handed to components shared across goroutines.
type Locked struct {
	mu sync.RWMutex
	f  *Filter
}

// NewLocked wraps f. The caller must not use f directly afterwards.
func NewLocked(f *Filter) *Locked {
	return &Locked{f: f}
}

func (l *Locked) Add(key []byte) {
	l.mu.Lock()
	l.f.Add(key)
	l.mu.Unlock()
}

func (l *Locked) AddString(key string) { l.Add([]byte(key)) }

func (l *Locked) MightContain(key []byte) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.f.MightContain(key)
}

func (l *Locked) MightContainString(key string) bool { return l.MightContain([]byte(key)) }

// TestAndAdd records key and reports whether it may have been present before.
// The test and the insert happen under one write lock.
func (l *Locked) TestAndAdd(key []byte) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.TestAndAdd(key)
}

// Snapshot returns a copy of the storage words taken under the read lock.
func (l *Locked) Snapshot() []uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.f.Words()
}

// FillRatio returns the fraction of bits set.
func (l *Locked) FillRatio() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.f.FillRatio()
}

func (l *Locked) NumBits() uint64 { return l.f.NumBits() }

func (l *Locked) HashCount() uint { return l.f.HashCount() }
