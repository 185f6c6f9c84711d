package signature

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"scaled", []float64{1, 2, 3}, []float64{2, 4, 6}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 2}, []float64{-1, -2}, -1},
		{"zero vector", []float64{0, 0}, []float64{1, 2}, 0},
		{"length mismatch", []float64{1, 2}, []float64{1, 2, 3}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestCosineSimilaritySymmetric(t *testing.T) {
	a := []float64{0.3, -1.2, 4.5, 0.01}
	b := []float64{2.2, 0.4, -0.7, 1.1}
	if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
		t.Error("cosine similarity must be symmetric")
	}
}

func identicalSignature() *VoiceSignature {
	return &VoiceSignature{
		Mean:             []float64{-12.5, 3.1, 0.4, -0.8, 1.2, 0.3, -0.2, 0.7, -0.1, 0.5, 0.2, -0.4, 0.1},
		Variance:         []float64{4.2, 1.1, 0.8, 0.5, 0.9, 0.3, 0.4, 0.2, 0.3, 0.1, 0.2, 0.15, 0.1},
		DeltaMean:        []float64{0.1, -0.05, 0.02, 0.03, -0.01, 0.04, 0, 0.01, -0.02, 0.01, 0, 0.02, -0.01},
		Energy:           0.02,
		ZeroCrossingRate: 0.11,
		FrameCount:       120,
	}
}

func TestVerifyStrictSelfMatch(t *testing.T) {
	sig := identicalSignature()
	result := VerifyStrict(sig, sig.Clone(), DefaultThreshold)

	if !result.Match {
		t.Fatalf("identical signatures must match: %+v", result.Details)
	}
	if math.Abs(result.Details.OverallScore-1) > 1e-9 {
		t.Errorf("self score = %f, want 1.0", result.Details.OverallScore)
	}
	if math.Abs(result.Confidence-1) > 1e-9 {
		t.Errorf("self confidence = %f, want 1.0", result.Confidence)
	}
	if !result.Details.MeanPassed || !result.Details.VariancePassed {
		t.Error("both gates must pass for identical signatures")
	}
}

// Константы подобраны так, что норма вектора b в float64 равна ровно 1.0,
// а косинус вычисляется точно в значение первой координаты
func boundarySignature(base *VoiceSignature, meanSim float64) *VoiceSignature {
	k := math.Sqrt(1 - meanSim*meanSim)
	sig := base.Clone()
	sig.Mean = make([]float64, len(base.Mean))
	sig.Mean[0] = meanSim
	sig.Mean[1] = k
	return sig
}

func TestVerifyStrictMeanGateBoundary(t *testing.T) {
	base := identicalSignature()
	base.Mean = make([]float64, 13)
	base.Mean[0] = 1

	t.Run("exactly at gate", func(t *testing.T) {
		test := boundarySignature(base, 0.88)
		result := VerifyStrict(test, base, DefaultThreshold)
		if result.Details.MeanSimilarity != 0.88 {
			t.Fatalf("meanSimilarity = %v, want exactly 0.88", result.Details.MeanSimilarity)
		}
		if !result.Details.MeanPassed {
			t.Error("similarity exactly at the gate must pass")
		}
	})

	t.Run("just below gate", func(t *testing.T) {
		test := boundarySignature(base, 0.87)
		result := VerifyStrict(test, base, DefaultThreshold)
		if result.Details.MeanPassed {
			t.Errorf("meanSimilarity %v must fail the 0.88 gate", result.Details.MeanSimilarity)
		}
		if result.Match {
			t.Error("failed mean gate must force non-match")
		}
	})
}

func TestVerifyStrictGatesNotCompensated(t *testing.T) {
	stored := identicalSignature()

	// Ортогональная дисперсия проваливает свои ворота даже при идеальном
	// сходстве остальных компонент
	test := stored.Clone()
	test.Variance = make([]float64, 13)
	for i := range test.Variance {
		// Чередование знаков даёт низкое косинусное сходство с положительным вектором
		if i%2 == 0 {
			test.Variance[i] = stored.Variance[i]
		} else {
			test.Variance[i] = -stored.Variance[i]
		}
	}

	result := VerifyStrict(test, stored, DefaultThreshold)
	if result.Details.VariancePassed {
		t.Fatalf("variance gate should fail (sim=%f)", result.Details.VarianceSimilarity)
	}
	if result.Match {
		t.Error("failed variance gate must force non-match")
	}
}

func TestWeightedScoreComponents(t *testing.T) {
	a := identicalSignature()
	b := a.Clone()

	// Самосравнение даёт ровно 1.0 (веса суммируются в 1)
	if score := WeightedScore(a, b); math.Abs(score-1) > 1e-9 {
		t.Fatalf("self weighted score = %f, want 1.0", score)
	}

	// Вдвое большая энергия уменьшает только энергетический компонент:
	// 1.0 - 0.10*(1 - 0.5) = 0.95
	b.Energy = a.Energy * 2
	if score := WeightedScore(a, b); math.Abs(score-0.95) > 1e-9 {
		t.Errorf("score with doubled energy = %f, want 0.95", score)
	}
}

func TestScalarRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"equal", 0.5, 0.5, 1},
		{"half", 1, 2, 0.5},
		{"order independent", 2, 1, 0.5},
		{"both zero", 0, 0, 1},
		{"one zero", 0, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scalarRatio(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("scalarRatio(%f, %f) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestFrameCountScore(t *testing.T) {
	tests := []struct {
		name         string
		test, stored float64
		want         float64
	}{
		{"equal", 100, 100, 1},
		{"quarter off", 75, 100, 0.75},
		{"way off", 500, 100, 0},
		{"stored zero", 10, 0, 0},
		{"both zero", 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := frameCountScore(tt.test, tt.stored); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("frameCountScore(%f, %f) = %f, want %f", tt.test, tt.stored, got, tt.want)
			}
		})
	}
}
