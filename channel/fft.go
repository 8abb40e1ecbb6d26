package channel

import (
	"math"
	"math/cmplx"
)

// FFT computes the discrete Fourier transform with the radix-2 Cooley-Tukey
// algorithm. The input length must be a power of 2.
func FFT(x []complex128) []complex128 {
	out := make([]complex128, len(x))
	copy(out, x)
	if len(x) <= 1 {
		return out
	}
	checkPow2(len(x))
	bitReverse(out)
	butterflies(out, false)
	return out
}

// IFFT computes the inverse transform, scaled by 1/N.
func IFFT(x []complex128) []complex128 {
	out := make([]complex128, len(x))
	copy(out, x)
	if len(x) <= 1 {
		return out
	}
	checkPow2(len(x))
	bitReverse(out)
	butterflies(out, true)

	scale := complex(1/float64(len(out)), 0)
	for i := range out {
		out[i] *= scale
	}
	return out
}

func checkPow2(n int) {
	if n&(n-1) != 0 {
		panic("channel: FFT length must be a power of 2")
	}
}

func butterflies(x []complex128, inverse bool) {
	n := len(x)
	sign := -1.0
	if inverse {
		sign = 1.0
	}
	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		wn := cmplx.Exp(complex(0, sign*2*math.Pi/float64(size)))
		for start := 0; start < n; start += size {
			w := complex(1, 0)
			for j := 0; j < half; j++ {
				u := x[start+j]
				v := w * x[start+j+half]
				x[start+j] = u + v
				x[start+j+half] = u - v
				w *= wn
			}
		}
	}
}

func bitReverse(x []complex128) {
	n := len(x)
	bits := 0
	for tmp := n; tmp > 1; tmp >>= 1 {
		bits++
	}
	for i := 0; i < n; i++ {
		j := reverseBits(i, bits)
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}
}

func reverseBits(x, bits int) int {
	r := 0
	for i := 0; i < bits; i++ {
		r = r<<1 | x&1
		x >>= 1
	}
	return r
}
