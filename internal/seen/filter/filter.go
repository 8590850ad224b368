// Package filter implements an insert-only bloom filter used to skip exact
// visited-set lookups for keys that were definitely never recorded.
//
// Probe positions come from two independent 64-bit hashes (xxhash64 and a
// seeded murmur3) combined by double hashing, h1 + i*h2 mod m, so only two
// hash computations are needed per key regardless of the probe count.
//
// A Filter is not safe for concurrent use. Wrap it in Locked when more than
// one goroutine touches it.
package filter

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidConfig is returned when a filter is constructed with parameters
// that cannot address any bit.
var ErrInvalidConfig = errors.New("filter: invalid configuration")

// Filter is a fixed-capacity bloom filter. Capacity and probe count are set at
// construction and never change; bits are only ever set.
type Filter struct {
	bits      bitStore
	numBits   uint64
	hashCount uint
}

// New allocates a zeroed filter of numBits bits probed hashCount times per key.
func New(numBits uint64, hashCount uint) (*Filter, error) {
	if numBits == 0 {
		return nil, fmt.Errorf("%w: num_bits must be at least 1", ErrInvalidConfig)
	}
	if hashCount == 0 {
		return nil, fmt.Errorf("%w: hash_count must be at least 1", ErrInvalidConfig)
	}
	if bits.UintSize < 64 && numBits > uint64(^uint(0)) {
		return nil, fmt.Errorf("%w: num_bits %d exceeds platform word size", ErrInvalidConfig, numBits)
	}
	store, err := newBitStore(numBits)
	if err != nil {
		return nil, err
	}
	return &Filter{
		bits:      store,
		numBits:   numBits,
		hashCount: hashCount,
	}, nil
}

// NewWithEstimates sizes a filter for n keys at false-positive rate p.
func NewWithEstimates(n uint64, p float64) (*Filter, error) {
	m, k, err := EstimateParameters(n, p)
	if err != nil {
		return nil, err
	}
	return New(m, k)
}

// Add records key.
func (f *Filter) Add(key []byte) {
	p := probesFor(key)
	for i := uint64(0); i < uint64(f.hashCount); i++ {
		f.bits.setBit(p.position(i, f.numBits))
	}
}

// AddString records key.
func (f *Filter) AddString(key string) { f.Add([]byte(key)) }

// MightContain reports whether key may have been added. False is definite;
// true may be a false positive.
func (f *Filter) MightContain(key []byte) bool {
	p := probesFor(key)
	for i := uint64(0); i < uint64(f.hashCount); i++ {
		if !f.bits.testBit(p.position(i, f.numBits)) {
			return false
		}
	}
	return true
}

// MightContainString reports whether key may have been added.
func (f *Filter) MightContainString(key string) bool { return f.MightContain([]byte(key)) }

// TestAndAdd records key and reports whether it may have been present before.
func (f *Filter) TestAndAdd(key []byte) bool {
	p := probesFor(key)
	present := true
	for i := uint64(0); i < uint64(f.hashCount); i++ {
		pos := p.position(i, f.numBits)
		if !f.bits.testBit(pos) {
			present = false
			f.bits.setBit(pos)
		}
	}
	return present
}

// NumBits returns the addressable bit capacity.
func (f *Filter) NumBits() uint64 { return f.numBits }

// HashCount returns the number of probes per key.
func (f *Filter) HashCount() uint { return f.hashCount }

// Words returns a copy of the storage words. Its length is always
// ceil(NumBits/64).
func (f *Filter) Words() []uint64 { return f.bits.words() }

// BitsSet returns the number of bits currently set.
func (f *Filter) BitsSet() uint { return f.bits.count() }

// FillRatio returns the fraction of bits set.
func (f *Filter) FillRatio() float64 {
	return float64(f.bits.count()) / float64(f.numBits)
}

// Equal reports whether two filters have the same parameters and bit state.
func (f *Filter) Equal(o *Filter) bool {
	if f == nil || o == nil {
		return f == o
	}
	return f.numBits == o.numBits && f.hashCount == o.hashCount && f.bits.equal(o.bits)
}
