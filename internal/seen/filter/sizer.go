package filter

import (
	"fmt"
	"math"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
)

// EstimateParameters returns the bit capacity m and probe count k for n keys
// at target false-positive rate p, using the standard formulas
//
//	m = -n*ln(p) / (ln 2)^2
//	k = (m/n) * ln 2
//
// n == 0 or p outside (0, 1) is rejected.
func EstimateParameters(n uint64, p float64) (uint64, uint, error) {
	if n == 0 {
		return 0, 0, fmt.Errorf("%w: expected item count must be at least 1", ErrInvalidConfig)
	}
	if !(p > 0 && p < 1) {
		return 0, 0, fmt.Errorf("%w: false-positive rate %v must be in (0, 1)", ErrInvalidConfig, p)
	}
	m, k := bitsbloom.EstimateParameters(uint(n), p)
	if m == 0 {
		m = 1
	}
	if k == 0 {
		k = 1
	}
	return uint64(m), k, nil
}

// FalsePositiveRate returns the expected false-positive probability
// (1 - e^(-k*n/m))^k after n distinct keys were added to an m-bit filter
// with k probes.
func FalsePositiveRate(numBits uint64, hashCount uint, n uint64) float64 {
	if numBits == 0 {
		return 1
	}
	k := float64(hashCount)
	return math.Pow(1-math.Exp(-k*float64(n)/float64(numBits)), k)
}
