package signature

import (
	"errors"
	"testing"
)

func TestMarshalRoundTrip(t *testing.T) {
	original := identicalSignature()

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	restored, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for i := range original.Mean {
		if restored.Mean[i] != original.Mean[i] {
			t.Errorf("mean[%d]: %v != %v", i, restored.Mean[i], original.Mean[i])
		}
		if restored.Variance[i] != original.Variance[i] {
			t.Errorf("variance[%d]: %v != %v", i, restored.Variance[i], original.Variance[i])
		}
		if restored.DeltaMean[i] != original.DeltaMean[i] {
			t.Errorf("deltaMean[%d]: %v != %v", i, restored.DeltaMean[i], original.DeltaMean[i])
		}
	}
	if restored.Energy != original.Energy {
		t.Errorf("energy: %v != %v", restored.Energy, original.Energy)
	}
	if restored.ZeroCrossingRate != original.ZeroCrossingRate {
		t.Errorf("zcr: %v != %v", restored.ZeroCrossingRate, original.ZeroCrossingRate)
	}
	if restored.FrameCount != original.FrameCount {
		t.Errorf("frameCount: %v != %v", restored.FrameCount, original.FrameCount)
	}
}

func TestMarshalNil(t *testing.T) {
	if _, err := Marshal(nil); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestMarshalEmptySignature(t *testing.T) {
	// Подпись от слишком короткой записи имеет пустые вектора; Unmarshal
	// её не принимает, поэтому и Marshal обязан отказать
	empty := &VoiceSignature{Mean: []float64{}, Variance: []float64{}, DeltaMean: []float64{}}
	if _, err := Marshal(empty); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for empty mean, got %v", err)
	}
}

func TestUnmarshalLegacyArray(t *testing.T) {
	legacy := []byte(`[-12.5, 3.1, 0.4, -0.8, 1.2, 0.3, -0.2, 0.7, -0.1, 0.5, 0.2, -0.4, 0.1]`)

	sig, err := Unmarshal(legacy)
	if err != nil {
		t.Fatalf("legacy unmarshal failed: %v", err)
	}

	if len(sig.Mean) != 13 {
		t.Fatalf("mean has %d coeffs, want 13", len(sig.Mean))
	}
	if sig.Mean[0] != -12.5 || sig.Mean[12] != 0.1 {
		t.Errorf("mean coefficients not preserved: %v", sig.Mean)
	}

	// Отсутствующие поля получают документированные значения по умолчанию
	for i, v := range sig.Variance {
		if v != legacyVariance {
			t.Errorf("variance[%d] = %v, want %v", i, v, legacyVariance)
		}
	}
	for i, v := range sig.DeltaMean {
		if v != legacyDeltaMean {
			t.Errorf("deltaMean[%d] = %v, want %v", i, v, legacyDeltaMean)
		}
	}
	if sig.Energy != legacyEnergy {
		t.Errorf("energy = %v, want %v", sig.Energy, legacyEnergy)
	}
	if sig.ZeroCrossingRate != legacyZCR {
		t.Errorf("zcr = %v, want %v", sig.ZeroCrossingRate, legacyZCR)
	}
	if sig.FrameCount != legacyFrameCount {
		t.Errorf("frameCount = %v, want %v", sig.FrameCount, legacyFrameCount)
	}
}

func TestUnmarshalLeadingWhitespace(t *testing.T) {
	sig, err := Unmarshal([]byte("  \n\t[1.0, 2.0, 3.0]"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sig.Mean) != 3 || sig.Mean[1] != 2 {
		t.Errorf("unexpected mean: %v", sig.Mean)
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"corrupt json", `{"mean": [1,`},
		{"object without mean", `{"energy": 0.5}`},
		{"empty array", `[]`},
		{"string", `"not a signature"`},
		{"mismatched dimensions", `{"mean": [1,2,3], "variance": [1], "deltaMean": [1,2,3]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(tt.data)); err == nil {
				t.Error("expected error for invalid input")
			}
		})
	}
}
