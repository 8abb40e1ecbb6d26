package mapping

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestMapperDemapper_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k := rapid.SampledFrom([]int{1, 2, 3, 4, 6}).Draw(t, "k")
		groups := rapid.IntRange(1, 16).Draw(t, "groups")
		bits := rapid.SliceOfN(rapid.SampledFrom([]uint8{0, 1}), groups*k, groups*k).Draw(t, "bits")
		method := rapid.SampledFrom([]Method{MethodApp, MethodMaxLog}).Draw(t, "method")

		kind := KindQAM
		if k%2 != 0 {
			kind = KindPAM
		}
		c, err := NewConstellation(kind, k)
		assert.NoError(t, err)
		m, err := NewMapper(c)
		assert.NoError(t, err)
		d, err := NewDemapper(method, c)
		assert.NoError(t, err)

		syms, err := m.Map(bits)
		assert.NoError(t, err)
		got, err := d.DemapHard(syms, 0.005)
		assert.NoError(t, err)
		assert.Equal(t, bits, got, "hard demapping of noiseless symbols must return the mapped bits")
	})
}

func TestDemapper_MethodGapProperty(t *testing.T) {
	// The exact and max-log reductions differ by at most log of the
	// hypothesis count on each side, log(2^(K-1)).
	c, err := NewConstellation(KindQAM, 4)
	if err != nil {
		t.Fatalf("NewConstellation: %v", err)
	}
	app, err := NewDemapper(MethodApp, c)
	if err != nil {
		t.Fatalf("NewDemapper: %v", err)
	}
	ml, err := NewDemapper(MethodMaxLog, c)
	if err != nil {
		t.Fatalf("NewDemapper: %v", err)
	}
	bound := math.Log(8) + 1e-9

	rapid.Check(t, func(t *rapid.T) {
		y := []complex128{complex(
			rapid.Float64Range(-2, 2).Draw(t, "re"),
			rapid.Float64Range(-2, 2).Draw(t, "im"),
		)}
		no := rapid.Float64Range(0.05, 2).Draw(t, "no")

		exact, err := app.Demap(y, no)
		assert.NoError(t, err)
		approx, err := ml.Demap(y, no)
		assert.NoError(t, err)
		for b := range exact {
			assert.LessOrEqual(t, math.Abs(exact[b]-approx[b]), bound,
				"bit %d: app %v vs maxlog %v", b, exact[b], approx[b])
		}
	})
}

func TestLogitMapper_RecoveryProperty(t *testing.T) {
	lm, err := NewLogitMapper(3)
	if err != nil {
		t.Fatalf("NewLogitMapper: %v", err)
	}
	ld, err := NewLogitDemapper(MethodApp, 3)
	if err != nil {
		t.Fatalf("NewLogitDemapper: %v", err)
	}

	rapid.Check(t, func(t *rapid.T) {
		llrs := rapid.SliceOfN(rapid.Float64Range(-8, 8), 3, 3).Draw(t, "llrs")

		logits, err := lm.SymbolLogits(llrs)
		assert.NoError(t, err)
		back, err := ld.LLRs(logits)
		assert.NoError(t, err)
		for b := range llrs {
			assert.InDelta(t, llrs[b], back[b], 1e-6)
		}
	})
}

func TestDemapper_PriorPassthroughProperty(t *testing.T) {
	c, err := NewConstellation(KindQAM, 2)
	if err != nil {
		t.Fatalf("NewConstellation: %v", err)
	}
	d, err := NewDemapper(MethodApp, c)
	if err != nil {
		t.Fatalf("NewDemapper: %v", err)
	}

	rapid.Check(t, func(t *rapid.T) {
		prior := rapid.SliceOfN(rapid.Float64Range(-5, 5), 2, 2).Draw(t, "prior")

		llrs, err := d.DemapWithPrior([]complex128{0}, 1, prior)
		assert.NoError(t, err)
		for b := range prior {
			assert.InDelta(t, prior[b], llrs[b], 1e-9,
				"ambiguous evidence must pass the prior through unchanged")
		}
	})
}
