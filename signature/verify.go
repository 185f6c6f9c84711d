package signature

import "math"

// Пороги строгой верификации
const (
	// DefaultThreshold порог композитного счёта
	DefaultThreshold = 0.92
	// MeanGate независимый порог сходства средних MFCC
	MeanGate = 0.88
	// VarianceGate независимый порог сходства дисперсий
	VarianceGate = 0.80
)

// Веса компонент композитного счёта (в сумме 1.0)
const (
	weightMean      = 0.35
	weightVariance  = 0.25
	weightDeltaMean = 0.15
	weightEnergy    = 0.10
	weightZCR       = 0.05
	weightFrames    = 0.10
)

// VerificationDetails покомпонентная диагностика для вызывающего
type VerificationDetails struct {
	MeanSimilarity     float64 `json:"meanSimilarity"`
	VarianceSimilarity float64 `json:"varianceSimilarity"`
	OverallScore       float64 `json:"overallScore"`
	MeanPassed         bool    `json:"meanPassed"`
	VariancePassed     bool    `json:"variancePassed"`
}

// VerificationResult результат одной попытки верификации
// Несовпадение - не ошибка, а отрицательный результат с полной диагностикой
type VerificationResult struct {
	Match      bool                `json:"match"`
	Confidence float64             `json:"confidence"`
	Details    VerificationDetails `json:"details"`
}

// CosineSimilarity вычисляет косинусное сходство между двумя векторами
// Возвращает 0 при нулевой норме любого вектора или несовпадении длин
// (несовпадение длин - нарушение контракта, размерности фиксированы на 13).
// Симметрична: CosineSimilarity(a,b) == CosineSimilarity(b,a)
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// WeightedScore вычисляет композитный счёт сходства двух подписей.
// Косинусные компоненты намеренно не клампятся: отрицательное сходство
// тянет счёт вниз сильнее, чем компенсируют хорошие компоненты
func WeightedScore(test, stored *VoiceSignature) float64 {
	return weightMean*CosineSimilarity(test.Mean, stored.Mean) +
		weightVariance*CosineSimilarity(test.Variance, stored.Variance) +
		weightDeltaMean*CosineSimilarity(test.DeltaMean, stored.DeltaMean) +
		weightEnergy*scalarRatio(test.Energy, stored.Energy) +
		weightZCR*scalarRatio(test.ZeroCrossingRate, stored.ZeroCrossingRate) +
		weightFrames*frameCountScore(test.FrameCount, stored.FrameCount)
}

// VerifyStrict выполняет строгую верификацию с тремя независимыми воротами:
// сходство средних >= MeanGate, сходство дисперсий >= VarianceGate и
// композитный счёт >= threshold. Высокий общий счёт не компенсирует
// проваленные индивидуальные ворота
func VerifyStrict(test, stored *VoiceSignature, threshold float64) *VerificationResult {
	meanSim := CosineSimilarity(test.Mean, stored.Mean)
	varSim := CosineSimilarity(test.Variance, stored.Variance)

	overall := weightMean*meanSim +
		weightVariance*varSim +
		weightDeltaMean*CosineSimilarity(test.DeltaMean, stored.DeltaMean) +
		weightEnergy*scalarRatio(test.Energy, stored.Energy) +
		weightZCR*scalarRatio(test.ZeroCrossingRate, stored.ZeroCrossingRate) +
		weightFrames*frameCountScore(test.FrameCount, stored.FrameCount)

	meanPassed := meanSim >= MeanGate
	varPassed := varSim >= VarianceGate

	return &VerificationResult{
		Match:      meanPassed && varPassed && overall >= threshold,
		Confidence: clamp01(overall),
		Details: VerificationDetails{
			MeanSimilarity:     meanSim,
			VarianceSimilarity: varSim,
			OverallScore:       overall,
			MeanPassed:         meanPassed,
			VariancePassed:     varPassed,
		},
	}
}

// scalarRatio возвращает min/max для неотрицательных скаляров
// Обе величины нулевые - считаем идентичными
func scalarRatio(a, b float64) float64 {
	if a > b {
		a, b = b, a
	}
	if b <= 0 {
		if a == b {
			return 1
		}
		return 0
	}
	return a / b
}

// frameCountScore оценивает близость количества фреймов: 1 - min(|dt|/stored, 1)
func frameCountScore(test, stored float64) float64 {
	if stored <= 0 {
		if test == stored {
			return 1
		}
		return 0
	}
	diff := math.Abs(test-stored) / stored
	if diff > 1 {
		diff = 1
	}
	return 1 - diff
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
