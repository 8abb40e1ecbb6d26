package channel

import (
	"math"
	"math/rand"
)

// AWGN adds circularly symmetric complex Gaussian noise to symbol streams.
// A fixed seed reproduces the exact noise sequence, which simulation sweeps
// rely on.
type AWGN struct {
	rng *rand.Rand
}

// NewAWGN creates a noise source with the given seed.
func NewAWGN(seed int64) *AWGN {
	return &AWGN{rng: rand.New(rand.NewSource(seed))}
}

// Apply returns x plus complex Gaussian noise of total variance no, split
// evenly between the real and imaginary components.
func (a *AWGN) Apply(x []complex128, no float64) []complex128 {
	out := make([]complex128, len(x))
	if no <= 0 {
		copy(out, x)
		return out
	}
	std := math.Sqrt(no / 2)
	for i, v := range x {
		out[i] = v + complex(a.rng.NormFloat64()*std, a.rng.NormFloat64()*std)
	}
	return out
}
