package mapping

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestLogitMapper_DemapRecoversLLRs(t *testing.T) {
	// Expanding bit LLRs to symbol logits and marginalizing back with the
	// exact method is lossless.
	llrs := []float64{0.3, -1.2, 2.5, 0.01, -0.75, 0.4, -3, 1.1}

	lm, err := NewLogitMapper(4)
	if err != nil {
		t.Fatalf("NewLogitMapper: %v", err)
	}
	ld, err := NewLogitDemapper(MethodApp, 4)
	if err != nil {
		t.Fatalf("NewLogitDemapper: %v", err)
	}

	logits, err := lm.SymbolLogits(llrs)
	if err != nil {
		t.Fatalf("SymbolLogits: %v", err)
	}
	if len(logits) != 2*16 {
		t.Fatalf("got %d logits, want 32", len(logits))
	}
	back, err := ld.LLRs(logits)
	if err != nil {
		t.Fatalf("LLRs: %v", err)
	}
	for i := range llrs {
		if math.Abs(back[i]-llrs[i]) > 1e-9 {
			t.Errorf("LLR %d: recovered %v, want %v", i, back[i], llrs[i])
		}
	}
}

func TestLogitMapper_HardSymbols(t *testing.T) {
	lm, err := NewLogitMapper(4)
	if err != nil {
		t.Fatalf("NewLogitMapper: %v", err)
	}
	table, _ := Labels(4)

	for i := 0; i < 16; i++ {
		label, _ := table.Bits(i)
		llrs := make([]float64, 4)
		for b, bit := range label {
			if bit == 1 {
				llrs[b] = 10
			} else {
				llrs[b] = -10
			}
		}
		got, err := lm.HardSymbols(llrs)
		if err != nil {
			t.Fatalf("HardSymbols: %v", err)
		}
		if got[0] != i {
			t.Errorf("label of %d decided as %d", i, got[0])
		}
	}
}

func TestLogitMapper_InputErrors(t *testing.T) {
	lm, err := NewLogitMapper(3)
	if err != nil {
		t.Fatalf("NewLogitMapper: %v", err)
	}
	if _, err := lm.SymbolLogits([]float64{1, 2}); err == nil {
		t.Error("llr count not a multiple of 3 accepted, want error")
	}
	if _, err := NewLogitMapper(0); err == nil {
		t.Error("zero bits per symbol accepted, want error")
	}
}

func TestMoments_UniformLogits(t *testing.T) {
	c, err := NewConstellation(KindQAM, 4)
	if err != nil {
		t.Fatalf("NewConstellation: %v", err)
	}

	// A flat distribution over a normalized symmetric constellation has
	// zero mean and unit variance.
	logits := make([]float64, 16)
	mean, variance, err := Moments(c, logits)
	if err != nil {
		t.Fatalf("Moments: %v", err)
	}
	if cmplx.Abs(mean[0]) > 1e-12 {
		t.Errorf("mean = %v, want 0", mean[0])
	}
	if math.Abs(variance[0]-1) > 1e-12 {
		t.Errorf("variance = %v, want 1", variance[0])
	}
}

func TestMoments_PointMass(t *testing.T) {
	c, err := NewConstellation(KindQAM, 4)
	if err != nil {
		t.Fatalf("NewConstellation: %v", err)
	}
	pts := c.Points()

	logits := make([]float64, 2*16)
	for i := range logits {
		logits[i] = -200
	}
	logits[3] = 0
	logits[16+9] = 0

	mean, variance, err := Moments(c, logits)
	if err != nil {
		t.Fatalf("Moments: %v", err)
	}
	want := []complex128{pts[3], pts[9]}
	for g := range want {
		if cmplx.Abs(mean[g]-want[g]) > 1e-12 {
			t.Errorf("group %d: mean %v, want %v", g, mean[g], want[g])
		}
		if variance[g] > 1e-12 {
			t.Errorf("group %d: variance %v, want 0", g, variance[g])
		}
	}
}

func TestMoments_Errors(t *testing.T) {
	c, err := NewConstellation(KindQAM, 2)
	if err != nil {
		t.Fatalf("NewConstellation: %v", err)
	}
	if _, _, err := Moments(nil, []float64{0, 0, 0, 0}); err == nil {
		t.Error("nil constellation accepted, want error")
	}
	if _, _, err := Moments(c, []float64{0, 0, 0}); err == nil {
		t.Error("logit count not a multiple of 4 accepted, want error")
	}
}
