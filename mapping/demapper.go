package mapping

import "fmt"

// Demapper computes bit LLRs from received symbols under an AWGN model: the
// logit of point c for a received sample y is -|y-c|^2/no, fed into a
// LogitDemapper. Each received symbol expands into K LLRs.
type Demapper struct {
	c  *Constellation
	ld *LogitDemapper
}

// NewDemapper creates a demapper on the given constellation. The numeric
// precision is inherited from the constellation.
func NewDemapper(method Method, c *Constellation) (*Demapper, error) {
	if c == nil {
		return nil, fmt.Errorf("demapper requires a constellation")
	}
	ld, err := NewLogitDemapperPrecision(method, c.BitsPerSymbol(), c.Precision())
	if err != nil {
		return nil, err
	}
	return &Demapper{c: c, ld: ld}, nil
}

// Constellation returns the constellation the demapper decides against.
func (d *Demapper) Constellation() *Constellation { return d.c }

// Method returns the configured reduction method.
func (d *Demapper) Method() Method { return d.ld.method }

// Demap returns K LLRs per received symbol. no is the noise variance
// estimate; values below the smallest positive normal float of the working
// precision are clamped up to it rather than rejected.
func (d *Demapper) Demap(y []complex128, no float64) ([]float64, error) {
	return d.ld.LLRs(d.exponents(y, []float64{no}))
}

// DemapN is Demap with one noise variance estimate per received symbol.
func (d *Demapper) DemapN(y []complex128, no []float64) ([]float64, error) {
	if len(no) != len(y) {
		return nil, fmt.Errorf("noise variance count %d does not match symbol count %d", len(no), len(y))
	}
	return d.ld.LLRs(d.exponents(y, no))
}

// DemapWithPrior fuses prior bit LLRs into the demapping. The prior holds K
// values shared by all symbols or K values per received symbol.
func (d *Demapper) DemapWithPrior(y []complex128, no float64, prior []float64) ([]float64, error) {
	return d.ld.LLRsWithPrior(d.exponents(y, []float64{no}), prior)
}

// DemapNWithPrior is DemapWithPrior with one noise variance estimate per
// received symbol.
func (d *Demapper) DemapNWithPrior(y []complex128, no []float64, prior []float64) ([]float64, error) {
	if len(no) != len(y) {
		return nil, fmt.Errorf("noise variance count %d does not match symbol count %d", len(no), len(y))
	}
	return d.ld.LLRsWithPrior(d.exponents(y, no), prior)
}

// DemapHard returns hard bit decisions, LLR >= 0 deciding 1.
func (d *Demapper) DemapHard(y []complex128, no float64) ([]uint8, error) {
	llrs, err := d.Demap(y, no)
	if err != nil {
		return nil, err
	}
	return HardDecisions(llrs), nil
}

// DemapHardWithPrior is DemapHard with prior fusion.
func (d *Demapper) DemapHardWithPrior(y []complex128, no float64, prior []float64) ([]uint8, error) {
	llrs, err := d.DemapWithPrior(y, no, prior)
	if err != nil {
		return nil, err
	}
	return HardDecisions(llrs), nil
}

// exponents computes -|y-c|^2/no for every sample and point. no holds a
// single shared value or one value per sample; each is clamped to the
// precision's smallest positive normal float.
func (d *Demapper) exponents(y []complex128, no []float64) []float64 {
	pts := d.c.Points()
	n := len(pts)
	tiny := d.c.Precision().tiny()
	exps := make([]float64, len(y)*n)
	for s, ys := range y {
		v := no[0]
		if len(no) > 1 {
			v = no[s]
		}
		if v < tiny {
			v = tiny
		}
		yr, yi := real(ys), imag(ys)
		for i, p := range pts {
			dr := yr - real(p)
			di := yi - imag(p)
			exps[s*n+i] = -(dr*dr + di*di) / v
		}
	}
	return exps
}

// SymbolDemapper computes the categorical posterior over constellation
// points for received symbols: per sample, the log-softmax of
// -|y-c|^2/no across all points (plus an optional per-point prior).
// Unlike Demapper, the noise variance is used as given, without a clamp
// floor, and no bit decomposition takes place.
type SymbolDemapper struct {
	c *Constellation
}

// NewSymbolDemapper creates a symbol demapper on the given constellation.
func NewSymbolDemapper(c *Constellation) (*SymbolDemapper, error) {
	if c == nil {
		return nil, fmt.Errorf("symbol demapper requires a constellation")
	}
	return &SymbolDemapper{c: c}, nil
}

// Constellation returns the constellation the demapper decides against.
func (d *SymbolDemapper) Constellation() *Constellation { return d.c }

// Demap returns 2^K normalized log-probabilities per received symbol.
func (d *SymbolDemapper) Demap(y []complex128, no float64) ([]float64, error) {
	exps, err := d.exponents(y, no, nil)
	if err != nil {
		return nil, err
	}
	return rowsLogSoftmax(d.c.Precision(), exps, d.c.Size()), nil
}

// DemapWithPrior adds prior log-probabilities per constellation point before
// normalizing. The prior holds 2^K values shared by all symbols or 2^K
// values per received symbol.
func (d *SymbolDemapper) DemapWithPrior(y []complex128, no float64, prior []float64) ([]float64, error) {
	if prior == nil {
		return nil, fmt.Errorf("prior must not be nil")
	}
	exps, err := d.exponents(y, no, prior)
	if err != nil {
		return nil, err
	}
	return rowsLogSoftmax(d.c.Precision(), exps, d.c.Size()), nil
}

// DemapHard returns the most likely symbol index per received symbol.
func (d *SymbolDemapper) DemapHard(y []complex128, no float64) ([]int, error) {
	exps, err := d.exponents(y, no, nil)
	if err != nil {
		return nil, err
	}
	return rowsArgmax(exps, d.c.Size()), nil
}

// DemapHardWithPrior is DemapHard with per-point prior fusion.
func (d *SymbolDemapper) DemapHardWithPrior(y []complex128, no float64, prior []float64) ([]int, error) {
	if prior == nil {
		return nil, fmt.Errorf("prior must not be nil")
	}
	exps, err := d.exponents(y, no, prior)
	if err != nil {
		return nil, err
	}
	return rowsArgmax(exps, d.c.Size()), nil
}

func (d *SymbolDemapper) exponents(y []complex128, no float64, prior []float64) ([]float64, error) {
	pts := d.c.Points()
	n := len(pts)
	if prior != nil && len(prior) != n && len(prior) != len(y)*n {
		return nil, fmt.Errorf("prior length %d: want %d (shared) or %d (per symbol)",
			len(prior), n, len(y)*n)
	}
	exps := make([]float64, len(y)*n)
	for s, ys := range y {
		yr, yi := real(ys), imag(ys)
		for i, p := range pts {
			dr := yr - real(p)
			di := yi - imag(p)
			e := -(dr*dr + di*di) / no
			if prior != nil {
				if len(prior) == n {
					e += prior[i]
				} else {
					e += prior[s*n+i]
				}
			}
			exps[s*n+i] = e
		}
	}
	return exps, nil
}

func rowsLogSoftmax(prec Precision, v []float64, n int) []float64 {
	if prec == PrecisionSingle {
		in := toFloat32(v)
		out := make([]float32, len(in))
		for g := 0; g*n < len(in); g++ {
			logSoftmaxInto(in[g*n:(g+1)*n], out[g*n:(g+1)*n])
		}
		return toFloat64(out)
	}
	out := make([]float64, len(v))
	for g := 0; g*n < len(v); g++ {
		logSoftmaxInto(v[g*n:(g+1)*n], out[g*n:(g+1)*n])
	}
	return out
}

func rowsArgmax(v []float64, n int) []int {
	out := make([]int, len(v)/n)
	for g := range out {
		out[g] = argmax(v[g*n : (g+1)*n])
	}
	return out
}

// HardDecisions thresholds LLRs at zero: llr >= 0 decides bit 1.
func HardDecisions(llrs []float64) []uint8 {
	bits := make([]uint8, len(llrs))
	for i, l := range llrs {
		if l >= 0 {
			bits[i] = 1
		}
	}
	return bits
}
