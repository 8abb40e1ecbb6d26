package mapping

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Method selects how competing symbol hypotheses are marginalized.
type Method uint8

const (
	// MethodApp marginalizes exactly with log-sum-exp.
	MethodApp Method = iota
	// MethodMaxLog keeps only the strongest hypothesis on each side.
	MethodMaxLog
)

// String returns the method name as used in configuration files.
func (m Method) String() string {
	switch m {
	case MethodApp:
		return "app"
	case MethodMaxLog:
		return "maxlog"
	default:
		return fmt.Sprintf("Method(%d)", uint8(m))
	}
}

// ParseMethod parses a demapping method name.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "app", "":
		return MethodApp, nil
	case "maxlog":
		return MethodMaxLog, nil
	default:
		return MethodApp, fmt.Errorf("unknown demapping method %q", s)
	}
}

func (m Method) valid() bool {
	return m == MethodApp || m == MethodMaxLog
}

// LogitDemapper turns logits over the 2^K constellation points into bit
// LLRs. For bit position b, LLR(b) = reduce over the points whose label bit
// is 1 minus reduce over those whose bit is 0, the reduction chosen by the
// method. The sign convention is log(Pr(b=1)/Pr(b=0)), matching logits; it
// is the opposite of some textbook definitions and must not be flipped.
type LogitDemapper struct {
	method Method
	table  *LabelTable
	prec   Precision
}

// NewLogitDemapper creates a double-precision logit demapper for k bits per
// symbol.
func NewLogitDemapper(method Method, k int) (*LogitDemapper, error) {
	return NewLogitDemapperPrecision(method, k, PrecisionDouble)
}

// NewLogitDemapperPrecision creates a logit demapper with an explicit
// numeric precision.
func NewLogitDemapperPrecision(method Method, k int, prec Precision) (*LogitDemapper, error) {
	if !method.valid() {
		return nil, fmt.Errorf("unknown demapping method %v", method)
	}
	if !prec.valid() {
		return nil, fmt.Errorf("unknown precision %v", prec)
	}
	table, err := Labels(k)
	if err != nil {
		return nil, err
	}
	return &LogitDemapper{method: method, table: table, prec: prec}, nil
}

// K returns the number of bits per symbol.
func (d *LogitDemapper) K() int { return d.table.k }

// Method returns the configured reduction method.
func (d *LogitDemapper) Method() Method { return d.method }

// LLRs computes K LLRs for every group of 2^K logits. The logit count must
// be a multiple of 2^K.
func (d *LogitDemapper) LLRs(logits []float64) ([]float64, error) {
	return d.llrs(logits, nil)
}

// LLRsWithPrior fuses prior bit knowledge into the LLR computation. The
// prior holds LLRs per bit position, either K values shared by all groups
// or K values per group.
func (d *LogitDemapper) LLRsWithPrior(logits, prior []float64) ([]float64, error) {
	if prior == nil {
		return nil, fmt.Errorf("prior must not be nil")
	}
	return d.llrs(logits, prior)
}

// HardBits computes LLRs and thresholds them at zero, LLR >= 0 deciding 1.
func (d *LogitDemapper) HardBits(logits []float64) ([]uint8, error) {
	llrs, err := d.llrs(logits, nil)
	if err != nil {
		return nil, err
	}
	return HardDecisions(llrs), nil
}

// HardBitsWithPrior is HardBits with prior fusion.
func (d *LogitDemapper) HardBitsWithPrior(logits, prior []float64) ([]uint8, error) {
	llrs, err := d.LLRsWithPrior(logits, prior)
	if err != nil {
		return nil, err
	}
	return HardDecisions(llrs), nil
}

func (d *LogitDemapper) llrs(logits, prior []float64) ([]float64, error) {
	n := d.table.Size()
	k := d.table.k
	if len(logits)%n != 0 {
		return nil, fmt.Errorf("logit count %d is not a multiple of %d", len(logits), n)
	}
	groups := len(logits) / n
	if prior != nil && len(prior) != k && len(prior) != groups*k {
		return nil, fmt.Errorf("prior length %d: want %d (shared) or %d (per group)",
			len(prior), k, groups*k)
	}
	if d.prec == PrecisionSingle {
		out := make([]float32, groups*k)
		bitLLRs(d.table, d.method, toFloat32(logits), toFloat32(prior), out)
		return toFloat64(out), nil
	}
	out := make([]float64, groups*k)
	bitLLRs(d.table, d.method, logits, prior, out)
	return out, nil
}

// bitLLRs computes per-bit LLRs for each group of 2^K logits. prior is nil,
// K values shared across groups, or groups*K values; lengths are validated
// by the caller.
func bitLLRs[T constraints.Float](t *LabelTable, method Method, logits, prior, out []T) {
	n := t.Size()
	k := t.k
	groups := len(logits) / n
	reduce := reduceFunc[T](method)

	var fused []T
	if prior != nil {
		fused = make([]T, n)
	}
	for g := 0; g < groups; g++ {
		z := logits[g*n : (g+1)*n]
		if prior != nil {
			p := prior
			if len(prior) == groups*k {
				p = prior[g*k : (g+1)*k]
			}
			priorLogits(t, p, fused)
			for i := range fused {
				fused[i] += z[i]
			}
			z = fused
		}
		for b := 0; b < k; b++ {
			out[g*k+b] = reduce(z, t.one[b]) - reduce(z, t.zero[b])
		}
	}
}
