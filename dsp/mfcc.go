package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Processor извлекает MFCC из аудио
// Создаётся один раз, далее только читается - потокобезопасен без блокировок
type Processor struct {
	config  Config
	filters [][]float64
	window  []float64
	fft     *fourier.FFT
}

// NewProcessor создаёт новый MFCC процессор для заданной конфигурации
func NewProcessor(config Config) *Processor {
	return &Processor{
		config:  config,
		filters: NewMelFilterBank(config.FFTSize, config.NumFilters, config.SampleRate, config.MinFreq, config.MaxFreq),
		window:  HammingWindow(config.FFTSize),
		fft:     fourier.NewFFT(config.FFTSize),
	}
}

// Config возвращает конфигурацию процессора
func (p *Processor) Config() Config {
	return p.config
}

// Extract вычисляет MFCC по фреймам: размер 512, шаг 256 (50% перекрытие)
// Неполный хвостовой фрейм отбрасывается. Результат [numFrames][numCoeffs].
// Чистая функция от входного буфера - одинаковый вход даёт одинаковый выход
func (p *Processor) Extract(samples []float32) [][]float64 {
	frameSize := p.config.FFTSize
	hop := p.config.HopSize

	var frames [][]float64
	for start := 0; start+frameSize <= len(samples); start += hop {
		frames = append(frames, p.ComputeFrame(samples[start:start+frameSize]))
	}
	return frames
}

// ComputeFrame вычисляет один кепстральный вектор
// Фрейм короче FFTSize дополняется нулями
func (p *Processor) ComputeFrame(frame []float32) []float64 {
	return dctII(p.LogMelFrame(frame), p.config.NumCoeffs)
}

// LogMel вычисляет log-mel энергии по фреймам без DCT
// Используется нейронными энкодерами, ожидающими mel-спектрограмму на входе
func (p *Processor) LogMel(samples []float32) [][]float64 {
	var frames [][]float64
	for start := 0; start+p.config.FFTSize <= len(samples); start += p.config.HopSize {
		frames = append(frames, p.LogMelFrame(samples[start:start+p.config.FFTSize]))
	}
	return frames
}

// LogMelFrame вычисляет log-mel энергии одного фрейма
func (p *Processor) LogMelFrame(frame []float32) []float64 {
	powerSpec := p.PowerSpectrum(frame)

	logMel := make([]float64, p.config.NumFilters)
	for m := 0; m < p.config.NumFilters; m++ {
		sum := 0.0
		for k, w := range p.filters[m] {
			if w != 0 {
				sum += powerSpec[k] * w
			}
		}
		// 1e-10 стабилизирует log(0) на пустых полосах
		logMel[m] = math.Log(sum + 1e-10)
	}
	return logMel
}

// PowerSpectrum вычисляет спектр мощности windowed-фрейма (re²+im² по FFTSize/2+1 бинам)
func (p *Processor) PowerSpectrum(frame []float32) []float64 {
	buf := make([]float64, p.config.FFTSize)
	for i := 0; i < len(frame) && i < p.config.FFTSize; i++ {
		buf[i] = float64(frame[i]) * p.window[i]
	}

	coeffs := p.fft.Coefficients(nil, buf)

	powerSpec := make([]float64, p.config.FFTSize/2+1)
	for i := range powerSpec {
		re := real(coeffs[i])
		im := imag(coeffs[i])
		powerSpec[i] = re*re + im*im
	}
	return powerSpec
}

// dctII применяет DCT-II: out[k] = sum_i in[i]*cos(pi*k*(2i+1)/(2n))
func dctII(input []float64, numCoeffs int) []float64 {
	n := len(input)
	output := make([]float64, numCoeffs)
	for k := 0; k < numCoeffs; k++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += input[i] * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n)))
		}
		output[k] = sum
	}
	return output
}
