package signature

import (
	"errors"
	"testing"
)

func TestAverageEmpty(t *testing.T) {
	if _, err := Average(nil); !errors.Is(err, ErrNoSignatures) {
		t.Fatalf("expected ErrNoSignatures, got %v", err)
	}
}

func TestAverageSingle(t *testing.T) {
	sig := identicalSignature()
	avg, err := Average([]*VoiceSignature{sig})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range sig.Mean {
		if avg.Mean[i] != sig.Mean[i] {
			t.Errorf("mean[%d] = %v, want %v", i, avg.Mean[i], sig.Mean[i])
		}
	}
	if avg.Energy != sig.Energy || avg.FrameCount != sig.FrameCount {
		t.Errorf("scalar fields changed: %+v", avg)
	}
}

func TestAverageTwo(t *testing.T) {
	a := &VoiceSignature{
		Mean:             []float64{1, 2},
		Variance:         []float64{0.2, 0.4},
		DeltaMean:        []float64{0, 1},
		Energy:           0.01,
		ZeroCrossingRate: 0.1,
		FrameCount:       100,
	}
	b := &VoiceSignature{
		Mean:             []float64{3, 4},
		Variance:         []float64{0.6, 0.8},
		DeltaMean:        []float64{2, 3},
		Energy:           0.03,
		ZeroCrossingRate: 0.3,
		FrameCount:       200,
	}

	avg, err := Average([]*VoiceSignature{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if avg.Mean[0] != 2 || avg.Mean[1] != 3 {
		t.Errorf("mean = %v, want [2 3]", avg.Mean)
	}
	if avg.Variance[0] != 0.4 || avg.Variance[1] != 0.6000000000000001 {
		// 0.4+0.8 = 1.2000000000000002 в float64
		t.Errorf("variance = %v", avg.Variance)
	}
	if avg.DeltaMean[0] != 1 || avg.DeltaMean[1] != 2 {
		t.Errorf("deltaMean = %v, want [1 2]", avg.DeltaMean)
	}
	if avg.Energy != 0.02 {
		t.Errorf("energy = %v, want 0.02", avg.Energy)
	}
	if avg.ZeroCrossingRate != 0.2 {
		t.Errorf("zcr = %v, want 0.2", avg.ZeroCrossingRate)
	}
	if avg.FrameCount != 150 {
		t.Errorf("frameCount = %v, want 150", avg.FrameCount)
	}
}

func TestAverageDimensionMismatch(t *testing.T) {
	a := &VoiceSignature{Mean: []float64{1, 2}, Variance: []float64{1, 1}, DeltaMean: []float64{0, 0}}
	b := &VoiceSignature{Mean: []float64{1}, Variance: []float64{1}, DeltaMean: []float64{0}}

	if _, err := Average([]*VoiceSignature{a, b}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}
