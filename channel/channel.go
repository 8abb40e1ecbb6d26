// Package channel models the transmission path of a symbol stream: additive
// white Gaussian noise, per-symbol frequency-domain fading, and the Eb/No
// arithmetic that converts link budgets into noise variances.
package channel

import (
	"fmt"
	"math"
)

// EbNoToNo converts an Eb/No figure in dB into the complex noise variance
// for a unit-energy constellation carrying k bits per symbol at the given
// code rate.
func EbNoToNo(ebNoDB float64, k int, codeRate float64) (float64, error) {
	if k < 1 {
		return 0, fmt.Errorf("bits per symbol must be at least 1, got %d", k)
	}
	if codeRate <= 0 {
		return 0, fmt.Errorf("code rate must be positive, got %v", codeRate)
	}
	ebNoLin := math.Pow(10, ebNoDB/10)
	return 1 / (ebNoLin * float64(k) * codeRate), nil
}

// ApplyFreq applies a frequency-domain channel response elementwise: symbol
// i is multiplied by h[i].
func ApplyFreq(x, h []complex128) ([]complex128, error) {
	if len(x) != len(h) {
		return nil, fmt.Errorf("response length %d does not match symbol count %d", len(h), len(x))
	}
	out := make([]complex128, len(x))
	for i := range x {
		out[i] = h[i] * x[i]
	}
	return out, nil
}

// ApplyFreqAWGN applies a frequency-domain response and then adds noise.
func ApplyFreqAWGN(a *AWGN, x, h []complex128, no float64) ([]complex128, error) {
	faded, err := ApplyFreq(x, h)
	if err != nil {
		return nil, err
	}
	return a.Apply(faded, no), nil
}

// FreqResponse expands a time-domain tap vector into the length-n
// frequency-domain response consumed by ApplyFreq. n must be a power of 2
// no smaller than the tap count.
func FreqResponse(taps []complex128, n int) ([]complex128, error) {
	if n < len(taps) {
		return nil, fmt.Errorf("response length %d shorter than %d taps", n, len(taps))
	}
	if n <= 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("response length %d is not a power of 2", n)
	}
	padded := make([]complex128, n)
	copy(padded, taps)
	return FFT(padded), nil
}
