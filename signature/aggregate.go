package signature

import "fmt"

// Average объединяет несколько подписей одного спикера (одна и та же фраза)
// в одну эталонную: поэлементное среднее векторов, скалярное среднее
// energy/zcr/frameCount. Пустой список - явная ошибка, а не нулевая подпись
func Average(signatures []*VoiceSignature) (*VoiceSignature, error) {
	if len(signatures) == 0 {
		return nil, ErrNoSignatures
	}

	dim := len(signatures[0].Mean)
	for i, s := range signatures {
		if len(s.Mean) != dim || len(s.Variance) != dim || len(s.DeltaMean) != dim {
			return nil, fmt.Errorf("sample %d: %w", i, ErrDimensionMismatch)
		}
	}

	avg := &VoiceSignature{
		Mean:      make([]float64, dim),
		Variance:  make([]float64, dim),
		DeltaMean: make([]float64, dim),
	}

	for _, s := range signatures {
		for j := 0; j < dim; j++ {
			avg.Mean[j] += s.Mean[j]
			avg.Variance[j] += s.Variance[j]
			avg.DeltaMean[j] += s.DeltaMean[j]
		}
		avg.Energy += s.Energy
		avg.ZeroCrossingRate += s.ZeroCrossingRate
		avg.FrameCount += s.FrameCount
	}

	n := float64(len(signatures))
	for j := 0; j < dim; j++ {
		avg.Mean[j] /= n
		avg.Variance[j] /= n
		avg.DeltaMean[j] /= n
	}
	avg.Energy /= n
	avg.ZeroCrossingRate /= n
	avg.FrameCount /= n

	return avg, nil
}
