// Package testutil provides deterministic randomness helpers for tests.
package testutil

import (
	"math/rand/v2"
)

// NewRNG creates a deterministic *rand.Rand from the given seed.
func NewRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// RandomCounts generates n random occupancy counts in [0, maxCount] with a
// guaranteed trailing empty slot, so the result is always a valid driver
// initialization.
func RandomCounts(rng *rand.Rand, n, maxCount int) []int {
	counts := make([]int, n)
	for i := range counts[:n-1] {
		counts[i] = rng.IntN(maxCount + 1)
	}
	return counts
}

// RandomValues generates n random discrete outcomes in [0, dim).
func RandomValues(rng *rand.Rand, n, dim int) []int {
	values := make([]int, n)
	for i := range values {
		values[i] = rng.IntN(dim)
	}
	return values
}
