// Package mapping implements Gray-labelled QAM/PAM constellations, the
// bit-to-symbol mapper, and soft demapping in the log domain: bit LLRs and
// symbol posteriors under exact (log-sum-exp) or max-log reductions, with
// optional prior fusion, plus the QAM/PAM index decompositions used by
// separable receivers. The LLR convention throughout is
// log(Pr(b=1)/Pr(b=0)).
package mapping

import (
	"fmt"
	"math"
	"math/rand"
)

// Kind selects the constellation point layout.
type Kind uint8

const (
	// KindNone leaves the kind unspecified; only meaningful with
	// ResolveConstellation when an existing instance is supplied.
	KindNone Kind = iota
	KindQAM
	KindPAM
	KindCustom
)

// String returns the kind name as used in configuration files.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindQAM:
		return "qam"
	case KindPAM:
		return "pam"
	case KindCustom:
		return "custom"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind parses a constellation kind name.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "qam":
		return KindQAM, nil
	case "pam":
		return KindPAM, nil
	case "custom":
		return KindCustom, nil
	default:
		return KindNone, fmt.Errorf("unknown constellation kind %q", s)
	}
}

// Precision selects the floating-point width of the numeric path.
type Precision uint8

const (
	// PrecisionDouble computes in float64. The default.
	PrecisionDouble Precision = iota
	// PrecisionSingle computes in float32 and widens results on return.
	PrecisionSingle
)

func (p Precision) String() string {
	switch p {
	case PrecisionDouble:
		return "double"
	case PrecisionSingle:
		return "single"
	default:
		return fmt.Sprintf("Precision(%d)", uint8(p))
	}
}

// ParsePrecision parses a precision name.
func ParsePrecision(s string) (Precision, error) {
	switch s {
	case "double", "":
		return PrecisionDouble, nil
	case "single":
		return PrecisionSingle, nil
	default:
		return PrecisionDouble, fmt.Errorf("unknown precision %q", s)
	}
}

// tiny returns the smallest positive normal value of the precision, the
// clamp floor for noise variances.
func (p Precision) tiny() float64 {
	if p == PrecisionSingle {
		return tiny32
	}
	return tiny64
}

func (p Precision) valid() bool {
	return p == PrecisionDouble || p == PrecisionSingle
}

// Options configures constellation construction beyond kind and bit count.
// The zero value gives a normalized, non-centered, fixed, double-precision
// constellation.
type Options struct {
	// Initial supplies the 2^K starting points of a custom constellation.
	// When nil, custom points are drawn with real and imaginary parts
	// independently uniform in [-0.05, 0.05]. QAM and PAM are
	// parameter-free and reject initial points.
	Initial []complex128

	// DisableNormalization keeps the raw point power instead of scaling
	// the effective points to unit average power.
	DisableNormalization bool

	// Center subtracts the mean from the effective points, before
	// normalization.
	Center bool

	// Trainable keeps the raw points writable through SetRaw.
	Trainable bool

	// Precision is the numeric width used by this constellation and by
	// every operation constructed on top of it.
	Precision Precision
}

// Constellation is an ordered set of 2^K complex points whose position
// carries the bit label: point i is labelled with the K-bit binary
// representation of i, most significant bit first. This implicit labeling
// is what Mapper and the demappers rely on.
type Constellation struct {
	kind      Kind
	table     *LabelTable
	re, im    []float64 // raw points, the externally trainable parameter pair
	normalize bool
	center    bool
	trainable bool
	prec      Precision
}

// NewConstellation builds a constellation normalized to unit average power.
// QAM requires an even number of bits per symbol; custom kinds start from
// random points (see Options.Initial for explicit ones).
func NewConstellation(kind Kind, k int) (*Constellation, error) {
	return NewConstellationWithOptions(kind, k, Options{})
}

// NewConstellationWithOptions builds a constellation with explicit options.
func NewConstellationWithOptions(kind Kind, k int, opts Options) (*Constellation, error) {
	table, err := Labels(k)
	if err != nil {
		return nil, err
	}
	if !opts.Precision.valid() {
		return nil, fmt.Errorf("unknown precision %v", opts.Precision)
	}
	c := &Constellation{
		kind:      kind,
		table:     table,
		normalize: !opts.DisableNormalization,
		center:    opts.Center,
		trainable: opts.Trainable,
		prec:      opts.Precision,
	}
	switch kind {
	case KindQAM:
		if k%2 != 0 {
			return nil, fmt.Errorf("qam requires an even number of bits per symbol, got %d", k)
		}
		if opts.Initial != nil {
			return nil, fmt.Errorf("qam constellations are parameter-free, initial points not allowed")
		}
		c.setPoints(qamPoints(table, c.normalize))
	case KindPAM:
		if opts.Initial != nil {
			return nil, fmt.Errorf("pam constellations are parameter-free, initial points not allowed")
		}
		c.setPoints(pamPoints(table, c.normalize))
	case KindCustom:
		if opts.Initial == nil {
			c.re, c.im = randomPoints(table.Size())
		} else {
			if len(opts.Initial) != table.Size() {
				return nil, fmt.Errorf("initial points: got %d, want %d", len(opts.Initial), table.Size())
			}
			c.setPoints(opts.Initial)
		}
	default:
		return nil, fmt.Errorf("unknown constellation kind %v", kind)
	}
	return c, nil
}

// ResolveConstellation returns an existing constellation after validating it
// against the requested kind and bit count, or builds a fresh one when none
// is supplied. An existing instance is accepted only with KindNone or
// KindCustom; building fresh requires KindQAM or KindPAM and k.
func ResolveConstellation(kind Kind, k int, c *Constellation) (*Constellation, error) {
	if c != nil {
		if kind != KindNone && kind != KindCustom {
			return nil, fmt.Errorf("existing constellation conflicts with kind %v", kind)
		}
		if k > 0 && k != c.BitsPerSymbol() {
			return nil, fmt.Errorf("constellation has %d bits per symbol, want %d", c.BitsPerSymbol(), k)
		}
		return c, nil
	}
	if kind != KindQAM && kind != KindPAM {
		return nil, fmt.Errorf("kind %v requires an existing constellation", kind)
	}
	return NewConstellation(kind, k)
}

func (c *Constellation) setPoints(pts []complex128) {
	c.re = make([]float64, len(pts))
	c.im = make([]float64, len(pts))
	for i, p := range pts {
		c.re[i] = real(p)
		c.im[i] = imag(p)
	}
}

func randomPoints(n int) (re, im []float64) {
	re = make([]float64, n)
	im = make([]float64, n)
	for i := 0; i < n; i++ {
		re[i] = rand.Float64()*0.1 - 0.05
		im[i] = rand.Float64()*0.1 - 0.05
	}
	return re, im
}

// Points returns the effective constellation: raw points, centered when the
// center flag is set, scaled to unit average power when the normalize flag
// is set, at the configured precision. The view is recomputed on every call
// so flag changes and trainable updates are always visible.
func (c *Constellation) Points() []complex128 {
	n := len(c.re)
	re := make([]float64, n)
	im := make([]float64, n)
	copy(re, c.re)
	copy(im, c.im)

	if c.center {
		var mr, mi float64
		for i := range re {
			mr += re[i]
			mi += im[i]
		}
		mr /= float64(n)
		mi /= float64(n)
		for i := range re {
			re[i] -= mr
			im[i] -= mi
		}
	}
	if c.normalize {
		var energy float64
		for i := range re {
			energy += re[i]*re[i] + im[i]*im[i]
		}
		energy /= float64(n)
		s := 1 / math.Sqrt(energy)
		for i := range re {
			re[i] *= s
			im[i] *= s
		}
	}

	pts := make([]complex128, n)
	if c.prec == PrecisionSingle {
		for i := range pts {
			pts[i] = complex(float64(float32(re[i])), float64(float32(im[i])))
		}
	} else {
		for i := range pts {
			pts[i] = complex(re[i], im[i])
		}
	}
	return pts
}

// Raw returns copies of the raw point components, the parameter pair an
// external optimizer reads before producing an update.
func (c *Constellation) Raw() (re, im []float64) {
	re = make([]float64, len(c.re))
	im = make([]float64, len(c.im))
	copy(re, c.re)
	copy(im, c.im)
	return re, im
}

// SetRaw replaces the raw point parameters. Only trainable constellations
// accept updates. The caller owns synchronization between updates and
// concurrent reads.
func (c *Constellation) SetRaw(re, im []float64) error {
	if !c.trainable {
		return fmt.Errorf("constellation is not trainable")
	}
	if len(re) != len(c.re) || len(im) != len(c.im) {
		return fmt.Errorf("raw points: got %d/%d values, want %d", len(re), len(im), len(c.re))
	}
	copy(c.re, re)
	copy(c.im, im)
	return nil
}

// Kind returns the constellation kind.
func (c *Constellation) Kind() Kind { return c.kind }

// BitsPerSymbol returns the number of bits per constellation symbol.
func (c *Constellation) BitsPerSymbol() int { return c.table.k }

// Size returns the number of constellation points, 2^K.
func (c *Constellation) Size() int { return c.table.Size() }

// Precision returns the numeric width fixed at construction.
func (c *Constellation) Precision() Precision { return c.prec }

// Trainable reports whether SetRaw accepts updates.
func (c *Constellation) Trainable() bool { return c.trainable }

// Normalized reports whether the effective view is scaled to unit power.
func (c *Constellation) Normalized() bool { return c.normalize }

// SetNormalize switches unit-power scaling of the effective view.
func (c *Constellation) SetNormalize(v bool) { c.normalize = v }

// Centered reports whether the effective view has its mean subtracted.
func (c *Constellation) Centered() bool { return c.center }

// SetCenter switches mean subtraction of the effective view.
func (c *Constellation) SetCenter(v bool) { c.center = v }
