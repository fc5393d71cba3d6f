package utils

import (
	"math"
	"math/rand"
)

// RandSource is a seeded random number generator owned by a single scenario.
// It is not safe for concurrent use; every worker gets its own source.
type RandSource struct {
	seed int64
	rng  *rand.Rand
}

// NewRandSource creates a new random source with the given seed.
// Any seed, including zero, yields a reproducible sequence.
func NewRandSource(seed int64) *RandSource {
	return &RandSource{
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Seed returns the seed the source was created with
func (r *RandSource) Seed() int64 {
	return r.seed
}

// Float64 returns a random float64 in [0.0, 1.0)
func (r *RandSource) Float64() float64 {
	return r.rng.Float64()
}

// Intn returns a random int in [0, n)
func (r *RandSource) Intn(n int) int {
	return r.rng.Intn(n)
}

// IntRange returns a uniformly distributed int in the inclusive range [min, max]
func (r *RandSource) IntRange(min, max int) int {
	if max <= min {
		return min
	}
	return min + r.rng.Intn(max-min+1)
}

// NormFloat64 returns a normally distributed random number with mean and stddev
func (r *RandSource) NormFloat64(mean, stddev float64) float64 {
	return r.rng.NormFloat64()*stddev + mean
}

// NormClamped samples a normal distribution around base with a relative standard
// deviation and clamps the result to a hard lower bound
func (r *RandSource) NormClamped(base, relStdDev, floor float64) float64 {
	v := r.NormFloat64(base, relStdDev*base)
	if math.IsNaN(v) || v < floor {
		return floor
	}
	return v
}

// splitmix64 is the finalizer of the SplitMix64 generator
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// DeriveSeed partitions a global seed into an independent sub-seed for index.
// The result depends only on (seed, index), never on call order.
func DeriveSeed(seed int64, index int) int64 {
	return int64(splitmix64(splitmix64(uint64(seed)) ^ uint64(index)))
}

// StreamSeed derives a named stream from a sub-seed so that pipeline stages
// draw from independent sequences
func StreamSeed(seed int64, stream string) int64 {
	h := uint64(14695981039346656037)
	for i := 0; i < len(stream); i++ {
		h ^= uint64(stream[i])
		h *= 1099511628211
	}
	return int64(splitmix64(uint64(seed) ^ h))
}
