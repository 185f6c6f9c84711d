// Package dsp предоставляет обработку сигнала для голосовой аутентификации:
// оконные функции, спектральный анализ, mel-фильтры и извлечение MFCC
package dsp

import "math"

// Константы анализа. Весь остальной код рассчитан на 16kHz mono float32.
const (
	// SampleRate частота дискретизации входного аудио
	SampleRate = 16000
	// FFTSize размер FFT фрейма (степень двойки)
	FFTSize = 512
	// HopSize шаг между фреймами (50% перекрытие)
	HopSize = 256
	// NumMelFilters количество треугольных mel-фильтров
	NumMelFilters = 26
	// NumCoeffs количество MFCC коэффициентов на фрейм
	NumCoeffs = 13
)

// Config конфигурация MFCC экстрактора
// Создаётся один раз при старте процесса и передаётся по ссылке -
// никакого скрытого глобального состояния
type Config struct {
	SampleRate int
	FFTSize    int // должен быть степенью двойки
	HopSize    int
	NumFilters int
	NumCoeffs  int
	MinFreq    float64
	MaxFreq    float64
}

// DefaultConfig возвращает конфигурацию по умолчанию (16kHz, 512/256, 26 mel, 13 MFCC)
func DefaultConfig() Config {
	return Config{
		SampleRate: SampleRate,
		FFTSize:    FFTSize,
		HopSize:    HopSize,
		NumFilters: NumMelFilters,
		NumCoeffs:  NumCoeffs,
		MinFreq:    0,
		MaxFreq:    8000,
	}
}

// HammingWindow создаёт окно Хэмминга заданного размера
func HammingWindow(size int) []float64 {
	window := make([]float64, size)
	if size == 1 {
		window[0] = 1
		return window
	}
	for i := 0; i < size; i++ {
		window[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(size-1))
	}
	return window
}
