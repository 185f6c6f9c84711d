package signature

import (
	"voicegate/dsp"
)

// Extractor строит голосовые подписи из аудио
// Держит только неизменяемый MFCC процессор - безопасен для одновременных вызовов
type Extractor struct {
	proc *dsp.Processor
}

// NewExtractor создаёт экстрактор для заданной конфигурации DSP
func NewExtractor(config dsp.Config) *Extractor {
	return &Extractor{proc: dsp.NewProcessor(config)}
}

// Extract строит подпись из одного аудио буфера (16kHz mono float32).
// Пустой буфер - ошибка. Буфер короче одного фрейма даёт подпись с пустыми
// векторами: вызывающий обязан трактовать её как неудачное извлечение
func (e *Extractor) Extract(samples []float32) (*VoiceSignature, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyAudio
	}

	frames := e.proc.Extract(samples)

	mean := computeMean(frames)
	variance := computeVariance(frames, mean)
	deltaMean := computeMean(computeDelta(frames))

	return &VoiceSignature{
		Mean:             mean,
		Variance:         variance,
		DeltaMean:        deltaMean,
		Energy:           Energy(samples),
		ZeroCrossingRate: ZeroCrossingRate(samples),
		FrameCount:       float64(len(frames)),
	}, nil
}

// computeMean вычисляет поэлементное среднее по фреймам
// Пустой вход даёт вектор нулевой длины
func computeMean(frames [][]float64) []float64 {
	if len(frames) == 0 {
		return []float64{}
	}

	mean := make([]float64, len(frames[0]))
	for _, frame := range frames {
		for j, v := range frame {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(len(frames))
	}
	return mean
}

// computeVariance вычисляет поэлементную популяционную дисперсию (деление на N)
func computeVariance(frames [][]float64, mean []float64) []float64 {
	if len(frames) == 0 {
		return []float64{}
	}

	variance := make([]float64, len(mean))
	for _, frame := range frames {
		for j, v := range frame {
			d := v - mean[j]
			variance[j] += d * d
		}
	}
	for j := range variance {
		variance[j] /= float64(len(frames))
	}
	return variance
}

// computeDelta вычисляет velocity-коэффициенты: (frame[i+1]-frame[i-1])/2
// Для N<3 возвращает вход без изменений - скоростного сигнала нет
func computeDelta(frames [][]float64) [][]float64 {
	if len(frames) < 3 {
		return frames
	}

	deltas := make([][]float64, 0, len(frames)-2)
	for i := 1; i < len(frames)-1; i++ {
		d := make([]float64, len(frames[i]))
		for j := range d {
			d[j] = (frames[i+1][j] - frames[i-1][j]) / 2
		}
		deltas = append(deltas, d)
	}
	return deltas
}

// Energy вычисляет среднюю энергию сигнала (средний квадрат сэмпла)
func Energy(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return sum / float64(len(samples))
}

// ZeroCrossingRate вычисляет долю смен знака между соседними сэмплами
func ZeroCrossingRate(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i] >= 0) != (samples[i-1] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples))
}
