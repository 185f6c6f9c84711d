// Package engine связывает детектор синтетической речи, извлечение
// голосовых данных и верификацию в единый конвейер аутентификации
package engine

import (
	"errors"
	"fmt"

	"voicegate/embedding"
	"voicegate/signature"
)

// Виды учётных данных
const (
	// KindStatistical статистическая подпись (MFCC ядро)
	KindStatistical = "statistical"
	// KindEmbedding нейронный эмбеддинг внешней модели
	KindEmbedding = "embedding"
)

var (
	// ErrExtractionFailed аудио не дало пригодных данных для сравнения
	ErrExtractionFailed = errors.New("voice extraction failed")
	// ErrKindMismatch сравнение учётных данных разных видов
	ErrKindMismatch = errors.New("credential kind mismatch")
)

// Credential результат enrollment - то, что хранит внешнее хранилище.
// Заполнено ровно одно из полей в зависимости от Kind
type Credential struct {
	Kind      string                    `json:"kind"`
	Signature *signature.VoiceSignature `json:"signature,omitempty"`
	Embedding []float64                 `json:"embedding,omitempty"`
}

// Clone возвращает глубокую копию учётных данных
// Векторные поля копируются: читатели не должны разделять память с хранилищем
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	out := &Credential{Kind: c.Kind}
	if c.Signature != nil {
		out.Signature = c.Signature.Clone()
	}
	if len(c.Embedding) > 0 {
		out.Embedding = append([]float64(nil), c.Embedding...)
	}
	return out
}

// Strategy стратегия извлечения голосовых данных
// Две реализации - статистическая подпись и внешний эмбеддинг - дают
// вектора, сравниваемые одним и тем же косинусным примитивом
type Strategy interface {
	// Name возвращает имя стратегии (для логирования и учётных данных)
	Name() string

	// Extract извлекает учётные данные из одного буфера
	Extract(samples []float32) (*Credential, error)

	// Enroll объединяет несколько образцов одного спикера в эталон
	Enroll(buffers [][]float32) (*Credential, error)

	// Score сравнивает тестовые учётные данные с эталонными
	Score(test, stored *Credential) (*signature.VerificationResult, error)

	// Close освобождает ресурсы стратегии
	Close()
}

// statisticalStrategy ядро на статистических подписях
type statisticalStrategy struct {
	extractor *signature.Extractor
	threshold float64
}

func (s *statisticalStrategy) Name() string { return KindStatistical }

func (s *statisticalStrategy) Extract(samples []float32) (*Credential, error) {
	sig, err := s.extractor.Extract(samples)
	if err != nil {
		return nil, err
	}
	if len(sig.Mean) == 0 {
		return nil, fmt.Errorf("%w: no analysis frames", ErrExtractionFailed)
	}
	return &Credential{Kind: KindStatistical, Signature: sig}, nil
}

func (s *statisticalStrategy) Enroll(buffers [][]float32) (*Credential, error) {
	signatures := make([]*signature.VoiceSignature, 0, len(buffers))
	for i, samples := range buffers {
		cred, err := s.Extract(samples)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		signatures = append(signatures, cred.Signature)
	}

	avg, err := signature.Average(signatures)
	if err != nil {
		return nil, err
	}
	return &Credential{Kind: KindStatistical, Signature: avg}, nil
}

func (s *statisticalStrategy) Score(test, stored *Credential) (*signature.VerificationResult, error) {
	if test.Signature == nil || stored.Signature == nil {
		return nil, ErrKindMismatch
	}
	return signature.VerifyStrict(test.Signature, stored.Signature, s.threshold), nil
}

func (s *statisticalStrategy) Close() {}

// embeddingStrategy внешняя нейронная модель за интерфейсом Encoder
// Счёт - косинусное сходство эмбеддингов против единственного порога
type embeddingStrategy struct {
	encoder   embedding.Encoder
	threshold float64
}

func (s *embeddingStrategy) Name() string { return KindEmbedding }

func (s *embeddingStrategy) Extract(samples []float32) (*Credential, error) {
	vec, err := s.encoder.Encode(samples)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	return &Credential{Kind: KindEmbedding, Embedding: toFloat64(vec)}, nil
}

func (s *embeddingStrategy) Enroll(buffers [][]float32) (*Credential, error) {
	if len(buffers) == 0 {
		return nil, signature.ErrNoSignatures
	}

	vectors := make([][]float32, 0, len(buffers))
	for i, samples := range buffers {
		vec, err := s.encoder.Encode(samples)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w: %v", i, ErrExtractionFailed, err)
		}
		vectors = append(vectors, vec)
	}

	return &Credential{Kind: KindEmbedding, Embedding: toFloat64(embedding.AverageVectors(vectors))}, nil
}

func (s *embeddingStrategy) Score(test, stored *Credential) (*signature.VerificationResult, error) {
	if len(test.Embedding) == 0 || len(stored.Embedding) == 0 {
		return nil, ErrKindMismatch
	}

	sim := signature.CosineSimilarity(test.Embedding, stored.Embedding)
	result := &signature.VerificationResult{
		Match:      sim >= s.threshold,
		Confidence: clamp01(sim),
	}
	result.Details.OverallScore = sim
	return result, nil
}

func (s *embeddingStrategy) Close() {
	s.encoder.Close()
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
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
