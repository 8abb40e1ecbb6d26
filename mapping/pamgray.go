package mapping

import "math"

// pamGray maps a bit vector to a Gray-labelled PAM point, the recursive
// labeling used by the 5G standard. The result is a signed odd integer in
// {±1, ±3, ..., ±(2^n - 1)}; adjacent integers differ in exactly one bit.
func pamGray(b []uint8) int {
	if len(b) == 1 {
		return 1 - 2*int(b[0])
	}
	return (1 - 2*int(b[0])) * (1<<(len(b)-1) - pamGray(b[1:]))
}

// qamEnergy returns the mean symbol energy of an unnormalized QAM
// constellation with k bits per symbol, in closed form:
// 1/2^(n-2) * sum_{i=1..2^(n-1)} (2i-1)^2 with n = k/2 bits per dimension.
func qamEnergy(k int) float64 {
	n := k / 2
	var sum float64
	for i := 1; i <= 1<<(n-1); i++ {
		d := float64(2*i - 1)
		sum += d * d
	}
	return sum / math.Pow(2, float64(n-2))
}

// pamEnergy is the PAM counterpart of qamEnergy, with n = k bits.
func pamEnergy(k int) float64 {
	var sum float64
	for i := 1; i <= 1<<(k-1); i++ {
		d := float64(2*i - 1)
		sum += d * d
	}
	return sum / math.Pow(2, float64(k-1))
}

// qamPoints generates the 2^k Gray-labelled square QAM points: the real
// component is the PAM point of the even-position label bits, the imaginary
// component that of the odd-position bits. The table's k must be even.
func qamPoints(t *LabelTable, normalize bool) []complex128 {
	half := t.k / 2
	pts := make([]complex128, t.Size())
	even := make([]uint8, half)
	odd := make([]uint8, half)
	for i := range pts {
		row := t.bits[i]
		for j := 0; j < half; j++ {
			even[j] = row[2*j]
			odd[j] = row[2*j+1]
		}
		pts[i] = complex(float64(pamGray(even)), float64(pamGray(odd)))
	}
	if normalize {
		scale := complex(1/math.Sqrt(qamEnergy(t.k)), 0)
		for i := range pts {
			pts[i] *= scale
		}
	}
	return pts
}

// pamPoints generates the 2^k Gray-labelled PAM points on the real line.
func pamPoints(t *LabelTable, normalize bool) []complex128 {
	pts := make([]complex128, t.Size())
	for i := range pts {
		pts[i] = complex(float64(pamGray(t.bits[i])), 0)
	}
	if normalize {
		scale := complex(1/math.Sqrt(pamEnergy(t.k)), 0)
		for i := range pts {
			pts[i] *= scale
		}
	}
	return pts
}
