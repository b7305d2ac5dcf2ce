package traffic

import (
	"math"
	"math/rand/v2"
)

// Rand is the random source a Simulation draws from. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// NewRand returns a seeded PCG generator.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// injectBraking forces expected vehicles to a standstill, where expected may
// exceed one: floor(expected) stops always happen and the fractional
// remainder is one Bernoulli trial. Each stop picks a vehicle uniformly, so
// the same vehicle can be hit twice. Returns the number of stops applied.
func injectBraking(vs []Vehicle, expected float64, rng Rand) int {
	if len(vs) == 0 || !(expected > 0) {
		return 0
	}

	whole, frac := math.Modf(expected)
	events := int(whole)
	if frac > 0 && rng.Float64() < frac {
		events++
	}

	for range events {
		vs[rng.IntN(len(vs))].Velocity = 0
	}
	return events
}
