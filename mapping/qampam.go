package mapping

import "fmt"

// QAMToPAM splits Gray-labelled QAM symbol indices into the pair of PAM
// indices that generate them: the even label bits select the real-axis PAM
// point and the odd label bits the imaginary-axis one.
type QAMToPAM struct {
	k  int
	re []int
	im []int
}

// NewQAMToPAM creates a splitter for 2^k-QAM. k must be even and at least 2.
func NewQAMToPAM(k int) (*QAMToPAM, error) {
	if k < 2 || k%2 != 0 {
		return nil, fmt.Errorf("bits per symbol must be even and at least 2, got %d", k)
	}
	n := 1 << k
	s := &QAMToPAM{k: k, re: make([]int, n), im: make([]int, n)}
	for i := 0; i < n; i++ {
		var r, q int
		for b := 0; b < k; b += 2 {
			r = r<<1 | (i>>(k-1-b))&1
		}
		for b := 1; b < k; b += 2 {
			q = q<<1 | (i>>(k-1-b))&1
		}
		s.re[i], s.im[i] = r, q
	}
	return s, nil
}

// K returns the number of bits per QAM symbol.
func (s *QAMToPAM) K() int { return s.k }

// Split returns the real-axis and imaginary-axis PAM indices for one QAM
// symbol index.
func (s *QAMToPAM) Split(index int) (int, int, error) {
	if index < 0 || index >= len(s.re) {
		return 0, 0, fmt.Errorf("symbol index %d out of range [0,%d)", index, len(s.re))
	}
	return s.re[index], s.im[index], nil
}

// SplitAll splits a batch of QAM symbol indices.
func (s *QAMToPAM) SplitAll(indices []int) ([]int, []int, error) {
	re := make([]int, len(indices))
	im := make([]int, len(indices))
	for i, idx := range indices {
		r, q, err := s.Split(idx)
		if err != nil {
			return nil, nil, err
		}
		re[i], im[i] = r, q
	}
	return re, im, nil
}

// PAMToQAM combines per-axis PAM indices back into Gray-labelled QAM symbol
// indices by interleaving the label bits of the two halves.
type PAMToQAM struct {
	k   int
	m   int
	ind [][]int
}

// NewPAMToQAM creates a combiner for 2^k-QAM. k must be even and at least 2.
func NewPAMToQAM(k int) (*PAMToQAM, error) {
	if k < 2 || k%2 != 0 {
		return nil, fmt.Errorf("bits per symbol must be even and at least 2, got %d", k)
	}
	half := k / 2
	m := 1 << half
	ind := make([][]int, m)
	for i := 0; i < m; i++ {
		ind[i] = make([]int, m)
		for j := 0; j < m; j++ {
			v := 0
			for b := half - 1; b >= 0; b-- {
				v = v<<1 | (i>>b)&1
				v = v<<1 | (j>>b)&1
			}
			ind[i][j] = v
		}
	}
	return &PAMToQAM{k: k, m: m, ind: ind}, nil
}

// K returns the number of bits per QAM symbol.
func (p *PAMToQAM) K() int { return p.k }

// Combine returns the QAM symbol index for one pair of PAM indices.
func (p *PAMToQAM) Combine(re, im int) (int, error) {
	if re < 0 || re >= p.m {
		return 0, fmt.Errorf("real-axis index %d out of range [0,%d)", re, p.m)
	}
	if im < 0 || im >= p.m {
		return 0, fmt.Errorf("imaginary-axis index %d out of range [0,%d)", im, p.m)
	}
	return p.ind[re][im], nil
}

// CombineAll combines batches of per-axis PAM indices pairwise.
func (p *PAMToQAM) CombineAll(re, im []int) ([]int, error) {
	if len(re) != len(im) {
		return nil, fmt.Errorf("axis index counts differ: %d vs %d", len(re), len(im))
	}
	out := make([]int, len(re))
	for i := range re {
		q, err := p.Combine(re[i], im[i])
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

// CombineLogits turns per-axis PAM symbol logits into QAM symbol logits.
// Each group of 2^(K/2) logits per axis produces 2^K QAM logits, the logit
// of a QAM point being the sum of the logits of its two PAM halves. Under
// independent axes this is exact.
func (p *PAMToQAM) CombineLogits(re, im []float64) ([]float64, error) {
	if len(re) != len(im) {
		return nil, fmt.Errorf("axis logit counts differ: %d vs %d", len(re), len(im))
	}
	if len(re)%p.m != 0 {
		return nil, fmt.Errorf("logit count %d is not a multiple of %d", len(re), p.m)
	}
	n := p.m * p.m
	groups := len(re) / p.m
	out := make([]float64, groups*n)
	for g := 0; g < groups; g++ {
		r := re[g*p.m : (g+1)*p.m]
		q := im[g*p.m : (g+1)*p.m]
		o := out[g*n : (g+1)*n]
		for i, li := range r {
			for j, lj := range q {
				o[p.ind[i][j]] = li + lj
			}
		}
	}
	return out, nil
}
