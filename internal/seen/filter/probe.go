package filter

import (
	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
)

// murmurSeed distinguishes the second hash family from a plain murmur3 and
// keeps h2 non-zero for the empty key.
const murmurSeed uint32 = 0x9747b28c

// probes holds the two base hashes of a key. Probe i lands on
// (h1 + i*h2) mod numBits using wrapping uint64 arithmetic.
type probes struct {
	h1 uint64
	h2 uint64
}

func probesFor(key []byte) probes {
	return probes{
		h1: xxhash.Sum64(key),
		h2: murmur3.Sum64WithSeed(key, murmurSeed),
	}
}

func (p probes) position(i, numBits uint64) uint64 {
	return (p.h1 + i*p.h2) % numBits
}

// Positions returns the hashCount bit positions probed for key in a filter
// of numBits bits. It returns nil when numBits is zero.
func Positions(key []byte, numBits uint64, hashCount uint) []uint64 {
	if numBits == 0 {
		return nil
	}
	p := probesFor(key)
	out := make([]uint64, hashCount)
	for i := range out {
		out[i] = p.position(uint64(i), numBits)
	}
	return out
}
