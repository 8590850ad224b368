package filter

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// wordBits is the width of a storage word.
const wordBits = 64

// bitStore is a packed array of numBits bits held in ceil(numBits/64) words.
// Bits are only ever set. Callers must keep indices below numBits; the
// bitset would otherwise grow, breaking the fixed word count.
type bitStore struct {
	set *bitset.BitSet
}

// newBitStore allocates numBits zeroed bits. bitset.New swallows a failed
// allocation and returns an empty set, so the word count is checked here.
func newBitStore(numBits uint64) (bitStore, error) {
	set := bitset.New(uint(numBits))
	if got, want := uint64(len(set.Bytes())), wordsFor(numBits); got != want {
		return bitStore{}, fmt.Errorf("%w: cannot allocate %d words for %d bits (got %d)", ErrInvalidConfig, want, numBits, got)
	}
	return bitStore{set: set}, nil
}

func (b bitStore) setBit(i uint64) { b.set.Set(uint(i)) }

func (b bitStore) testBit(i uint64) bool { return b.set.Test(uint(i)) }

// words returns a copy of the backing words, lowest bit index first.
func (b bitStore) words() []uint64 {
	src := b.set.Bytes()
	out := make([]uint64, len(src))
	copy(out, src)
	return out
}

func (b bitStore) count() uint { return b.set.Count() }

func (b bitStore) equal(o bitStore) bool { return b.set.Equal(o.set) }

// wordsFor returns the number of storage words needed for numBits bits.
func wordsFor(numBits uint64) uint64 {
	n := numBits / wordBits
	if numBits%wordBits != 0 {
		n++
	}
	return n
}
