package mapping

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// LogitMapper converts per-bit LLRs into logits over constellation points.
// With the LLR convention log(Pr(b=1)/Pr(b=0)), the logit of point i is the
// sum over its label bits of log sigmoid(s*llr), where s is +1 for a 1 bit
// and -1 for a 0 bit. Each group of K LLRs expands into 2^K logits.
type LogitMapper struct {
	table *LabelTable
	prec  Precision
}

// NewLogitMapper creates a logit mapper for 2^k points in double precision.
func NewLogitMapper(k int) (*LogitMapper, error) {
	return NewLogitMapperPrecision(k, PrecisionDouble)
}

// NewLogitMapperPrecision creates a logit mapper with explicit precision.
func NewLogitMapperPrecision(k int, prec Precision) (*LogitMapper, error) {
	if !prec.valid() {
		return nil, fmt.Errorf("unknown precision %v", prec)
	}
	t, err := Labels(k)
	if err != nil {
		return nil, err
	}
	return &LogitMapper{table: t, prec: prec}, nil
}

// K returns the number of bits per symbol.
func (m *LogitMapper) K() int { return m.table.k }

// SymbolLogits returns 2^K unnormalized log-probabilities per group of K
// input LLRs.
func (m *LogitMapper) SymbolLogits(llrs []float64) ([]float64, error) {
	if err := m.check(llrs); err != nil {
		return nil, err
	}
	n := m.table.Size()
	groups := len(llrs) / m.table.k
	if m.prec == PrecisionSingle {
		in := toFloat32(llrs)
		out := make([]float32, groups*n)
		symbolLogits(m.table, in, out)
		return toFloat64(out), nil
	}
	out := make([]float64, groups*n)
	symbolLogits(m.table, llrs, out)
	return out, nil
}

// HardSymbols returns the most likely symbol index per group of K LLRs.
func (m *LogitMapper) HardSymbols(llrs []float64) ([]int, error) {
	logits, err := m.SymbolLogits(llrs)
	if err != nil {
		return nil, err
	}
	return rowsArgmax(logits, m.table.Size()), nil
}

func (m *LogitMapper) check(llrs []float64) error {
	if len(llrs)%m.table.k != 0 {
		return fmt.Errorf("llr count %d is not a multiple of %d", len(llrs), m.table.k)
	}
	return nil
}

func symbolLogits[T constraints.Float](t *LabelTable, llrs, out []T) {
	n := 1 << t.k
	for g := 0; g*t.k < len(llrs); g++ {
		priorLogits(t, llrs[g*t.k:(g+1)*t.k], out[g*n:(g+1)*n])
	}
}

// Moments computes the mean and variance of the constellation point
// distribution induced by symbol logits. Each group of 2^K logits is passed
// through a softmax; the mean is the probability-weighted point and the
// variance the weighted squared distance from that mean.
func Moments(c *Constellation, logits []float64) ([]complex128, []float64, error) {
	if c == nil {
		return nil, nil, fmt.Errorf("moments require a constellation")
	}
	n := c.Size()
	if len(logits)%n != 0 {
		return nil, nil, fmt.Errorf("logit count %d is not a multiple of %d", len(logits), n)
	}
	pts := c.Points()
	if c.Precision() == PrecisionSingle {
		return momentsKernel(toFloat32(logits), pts, n)
	}
	return momentsKernel(logits, pts, n)
}

func momentsKernel[T constraints.Float](logits []T, pts []complex128, n int) ([]complex128, []float64, error) {
	groups := len(logits) / n
	means := make([]complex128, groups)
	vars := make([]float64, groups)
	p := make([]T, n)
	for g := 0; g < groups; g++ {
		softmaxInto(logits[g*n:(g+1)*n], p)
		var mr, mi T
		for i, pi := range p {
			mr += pi * T(real(pts[i]))
			mi += pi * T(imag(pts[i]))
		}
		var v T
		for i, pi := range p {
			dr := T(real(pts[i])) - mr
			di := T(imag(pts[i])) - mi
			v += pi * (dr*dr + di*di)
		}
		means[g] = complex(float64(mr), float64(mi))
		vars[g] = float64(v)
	}
	return means, vars, nil
}
