// Package embedding предоставляет извлечение голосовых эмбеддингов через
// внешние предобученные модели. Для движка это чёрный ящик: аудио на входе,
// вектор фиксированной длины на выходе. Два взаимозаменяемых бэкенда -
// onnxruntime и sherpa-onnx - выбираются конфигурацией
package embedding

import "math"

// Encoder преобразует аудио в нормализованный вектор фиксированной длины
// Реализации могут держать нативные ресурсы - вызывающий обязан звать Close
type Encoder interface {
	// Encode извлекает эмбеддинг из аудио (float32, 16kHz, mono)
	Encode(samples []float32) ([]float32, error)

	// Dim возвращает размерность эмбеддинга
	Dim() int

	// Name возвращает имя бэкенда (для логирования)
	Name() string

	// Close освобождает ресурсы
	Close()
}

// Normalize нормализует вектор до единичной длины
// Вектор с исчезающей нормой возвращается как есть
func Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm < 1e-6 {
		return v
	}

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// AverageVectors усредняет несколько эмбеддингов одного спикера
// и нормализует результат. Пустой вход даёт nil
func AverageVectors(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}

	avg := make([]float32, len(vectors[0]))
	for _, v := range vectors {
		for i := range avg {
			avg[i] += v[i]
		}
	}
	n := float32(len(vectors))
	for i := range avg {
		avg[i] /= n
	}
	return Normalize(avg)
}
