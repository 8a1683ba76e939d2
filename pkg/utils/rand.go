package utils

import (
	"math/rand"
	"time"
)

// RandSource is a seedable random number generator. Search strategies own
// their source explicitly so a fixed seed reproduces a full run; there is no
// package-level shared source.
type RandSource struct {
	rng *rand.Rand
}

// NewRandSource creates a new random source with the given seed. A zero seed
// selects a time-based one.
func NewRandSource(seed int64) *RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandSource{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Float64 returns a random float64 in [0.0, 1.0).
func (r *RandSource) Float64() float64 {
	return r.rng.Float64()
}

// Intn returns a random int in [0, n).
func (r *RandSource) Intn(n int) int {
	return r.rng.Intn(n)
}

// NormFloat64 returns a normally distributed random number with mean and stddev.
func (r *RandSource) NormFloat64(mean, stddev float64) float64 {
	return r.rng.NormFloat64()*stddev + mean
}

// UniformFloat64 returns a uniformly distributed random number in [min, max).
func (r *RandSource) UniformFloat64(min, max float64) float64 {
	return min + r.rng.Float64()*(max-min)
}

// BernoulliBool returns true with probability p, false otherwise.
func (r *RandSource) BernoulliBool(p float64) bool {
	return r.rng.Float64() < p
}

// Perm returns a random permutation of [0, n).
func (r *RandSource) Perm(n int) []int {
	return r.rng.Perm(n)
}
