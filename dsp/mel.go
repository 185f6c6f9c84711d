package dsp

import "math"

// hzToMel преобразует частоту Hz в mel (HTK formula)
func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// melToHz преобразует mel обратно в Hz
func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// NewMelFilterBank создаёт треугольные mel-фильтры
// Каждый фильтр - плотный вектор весов по fftSize/2+1 бинам спектра мощности.
// Результат неизменяемый и безопасен для одновременного чтения из разных горутин
func NewMelFilterBank(fftSize, numFilters, sampleRate int, minFreq, maxFreq float64) [][]float64 {
	numBins := fftSize/2 + 1

	// numFilters+2 равноотстоящих точек в mel-шкале: края + центры фильтров
	melMin := hzToMel(minFreq)
	melMax := hzToMel(maxFreq)
	binPoints := make([]int, numFilters+2)
	for i := range binPoints {
		mel := melMin + float64(i)*(melMax-melMin)/float64(numFilters+1)
		hz := melToHz(mel)
		binPoints[i] = int(math.Floor(float64(fftSize+1) * hz / float64(sampleRate)))
	}

	filters := make([][]float64, numFilters)
	for m := 0; m < numFilters; m++ {
		filters[m] = make([]float64, numBins)

		left := binPoints[m]
		center := binPoints[m+1]
		right := binPoints[m+2]

		// Восходящий склон
		for k := left; k < center && k < numBins; k++ {
			if center > left && k >= 0 {
				filters[m][k] = float64(k-left) / float64(center-left)
			}
		}
		// Нисходящий склон
		for k := center; k < right && k < numBins; k++ {
			if right > center && k >= 0 {
				filters[m][k] = float64(right-k) / float64(right-center)
			}
		}
	}

	return filters
}
