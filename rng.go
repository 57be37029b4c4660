package optics

import "math/rand/v2"

// RNG is the thin randomness collaborator the distribution reservoir
// (index draw) and the quantile estimator (Bernoulli trial) depend on,
// specified only as the interface callers require of it, with a
// stdlib-backed default (see DESIGN.md).
type RNG interface {
	// Uint64N returns a uniform random value in [0, n). Uint64N(0) is
	// defined as 0.
	Uint64N(n uint64) uint64
	// Float64 returns a uniform random value in [0, 1).
	Float64() float64
}

// defaultRNG is backed by math/rand/v2's package-level generator, which
// is safe for concurrent use by multiple goroutines without additional
// locking.
type defaultRNG struct{}

func (defaultRNG) Uint64N(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	return rand.Uint64N(n)
}

func (defaultRNG) Float64() float64 { return rand.Float64() }
