package mapping

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Log-domain kernels shared by the demapping paths. Reductions subtract the
// running maximum before exponentiation so that large negative exponents
// (far constellation points at low noise) cannot underflow the sum.

// Smallest positive normal values per precision, the clamp floor applied to
// noise variances. The subnormal math.SmallestNonzeroFloat constants are not
// usable here: dividing by a subnormal overflows the reciprocal.
const (
	tiny32 = 0x1p-126
	tiny64 = 0x1p-1022
)

func maxOf[T constraints.Float](v []T) T {
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

// maxIdx returns the maximum of v over the given index set.
func maxIdx[T constraints.Float](v []T, idx []int) T {
	m := v[idx[0]]
	for _, i := range idx[1:] {
		if v[i] > m {
			m = v[i]
		}
	}
	return m
}

// logSumExpIdx returns log(sum exp(v[i])) over the given index set.
func logSumExpIdx[T constraints.Float](v []T, idx []int) T {
	m := maxIdx(v, idx)
	if math.IsInf(float64(m), -1) {
		return m
	}
	var sum T
	for _, i := range idx {
		sum += T(math.Exp(float64(v[i] - m)))
	}
	return m + T(math.Log(float64(sum)))
}

// reduceFunc returns the partition reduction for a demapping method: exact
// log-sum-exp for app, plain maximum for maxlog.
func reduceFunc[T constraints.Float](m Method) func([]T, []int) T {
	if m == MethodMaxLog {
		return maxIdx[T]
	}
	return logSumExpIdx[T]
}

// logSigmoid returns log(1/(1+exp(-x))) without overflow for large |x|.
func logSigmoid[T constraints.Float](x T) T {
	if x >= 0 {
		return T(-math.Log1p(math.Exp(-float64(x))))
	}
	return x - T(math.Log1p(math.Exp(float64(x))))
}

// priorLogits writes, for every symbol index i, the log-probability of i
// under independent bit priors p (LLRs): sum_b logSigmoid(signed[i][b]*p[b]).
func priorLogits[T constraints.Float](t *LabelTable, p []T, out []T) {
	for i := range out {
		srow := t.signed[i]
		var lp T
		for b := 0; b < t.k; b++ {
			lp += logSigmoid(T(srow[b]) * p[b])
		}
		out[i] = lp
	}
}

// softmaxInto writes softmax(v) into out.
func softmaxInto[T constraints.Float](v, out []T) {
	m := maxOf(v)
	var sum T
	for i, x := range v {
		e := T(math.Exp(float64(x - m)))
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
}

// logSoftmaxInto writes log(softmax(v)) into out.
func logSoftmaxInto[T constraints.Float](v, out []T) {
	m := maxOf(v)
	var sum T
	for i, x := range v {
		s := x - m
		out[i] = s
		sum += T(math.Exp(float64(s)))
	}
	lse := T(math.Log(float64(sum)))
	for i := range out {
		out[i] -= lse
	}
}

// argmax returns the index of the largest value, the first one on ties.
func argmax[T constraints.Float](v []T) int {
	best := 0
	for i, x := range v {
		if x > v[best] {
			best = i
		}
	}
	return best
}

func toFloat32(v []float64) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
