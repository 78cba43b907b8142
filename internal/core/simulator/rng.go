package simulator

import "math"

// InitialSeed seeds a fresh engine before any reset
const InitialSeed uint32 = 1103

// RNG is a mulberry32 generator. Two engines seeded alike produce identical
// streams, which keeps demo runs reproducible.
type RNG struct {
	state uint32
}

// NewRNG returns a generator seeded with seed
func NewRNG(seed uint32) *RNG {
	return &RNG{state: seed}
}

// ResetSeed derives the seed used when the operator resets the simulation
func ResetSeed(scenarioIndex, intensity int) uint32 {
	return uint32(1000 + scenarioIndex*97 + intensity*3)
}

// Float returns the next value in [0, 1)
func (r *RNG) Float() float64 {
	r.state += 0x6d2b79f5
	t := r.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return float64(t^t>>14) / 4294967296
}

// Index returns a uniformly chosen index into a slice of length n
func (r *RNG) Index(n int) int {
	i := int(math.Floor(r.Float() * float64(n)))
	if i >= n {
		return 0
	}
	return i
}

func choice[T any](r *RNG, items []T) T {
	return items[r.Index(len(items))]
}

// round matches the half-up rounding the dashboard figures were tuned with
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}
