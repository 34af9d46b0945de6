package randutil

import "math/rand"

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from the provided int64.
// The helper centralises seed derivation so that all stochastic components
// (deck shuffles, equity sampling, AI deviation) get reproducible sequences
// from the same seed.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(int64(mix(uint64(seed)))))
}

// Derive produces a child seed from a parent seed and a stream index,
// keeping per-player RNG streams independent of each other.
func Derive(seed int64, stream int64) int64 {
	return int64(mix(uint64(seed) + uint64(stream)*goldenRatio64))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
