package engine

import (
	"fmt"
	"log"

	"voicegate/dsp"
	"voicegate/embedding"
	"voicegate/liveness"
	"voicegate/signature"
)

// Пороги по умолчанию
const (
	// DefaultEmbeddingThreshold порог косинусного сходства эмбеддингов
	DefaultEmbeddingThreshold = 0.70
)

// Config конфигурация движка
type Config struct {
	// Strategy вид извлечения: KindStatistical или KindEmbedding
	Strategy string

	// Threshold порог верификации; 0 - порог по умолчанию для стратегии
	Threshold float64

	// DisableLivenessGate отключает блокировку по детектору синтетики
	// (только для оффлайн-отладки, в продакшене gate всегда включён)
	DisableLivenessGate bool

	// DSP конфигурация статистического экстрактора
	DSP dsp.Config

	// Encoder внешний энкодер для KindEmbedding (инжектируется вызывающим)
	Encoder embedding.Encoder
}

// DefaultConfig возвращает конфигурацию статистического ядра
func DefaultConfig() Config {
	return Config{
		Strategy:  KindStatistical,
		Threshold: signature.DefaultThreshold,
		DSP:       dsp.DefaultConfig(),
	}
}

// Outcome результат одной попытки верификации
type Outcome struct {
	Match      bool                          `json:"match"`
	Confidence float64                       `json:"confidence"`
	Liveness   *liveness.Analysis            `json:"liveness,omitempty"`
	Details    *signature.VerificationResult `json:"details,omitempty"`

	// Degraded тестовая запись слишком короткая, надёжность снижена
	Degraded bool `json:"degraded,omitempty"`
}

// Engine конвейер аутентификации: liveness gate -> извлечение -> сравнение
// Все операции синхронные и не мутируют разделяемое состояние -
// движок безопасен для одновременных вызовов
type Engine struct {
	detector *liveness.Detector
	strategy Strategy
	gate     bool
}

// New создаёт движок для заданной конфигурации
func New(config Config) (*Engine, error) {
	var strategy Strategy

	switch config.Strategy {
	case KindStatistical, "":
		threshold := config.Threshold
		if threshold == 0 {
			threshold = signature.DefaultThreshold
		}
		strategy = &statisticalStrategy{
			extractor: signature.NewExtractor(config.DSP),
			threshold: threshold,
		}
	case KindEmbedding:
		if config.Encoder == nil {
			return nil, fmt.Errorf("embedding strategy requires an encoder")
		}
		threshold := config.Threshold
		if threshold == 0 {
			threshold = DefaultEmbeddingThreshold
		}
		strategy = &embeddingStrategy{
			encoder:   config.Encoder,
			threshold: threshold,
		}
	default:
		return nil, fmt.Errorf("unknown strategy: %q", config.Strategy)
	}

	return &Engine{
		detector: liveness.NewDetector(),
		strategy: strategy,
		gate:     !config.DisableLivenessGate,
	}, nil
}

// StrategyName возвращает имя активной стратегии
func (e *Engine) StrategyName() string {
	return e.strategy.Name()
}

// DetectDeepfake выполняет только liveness-анализ сырого аудио
func (e *Engine) DetectDeepfake(samples []float32) liveness.Analysis {
	return e.detector.Analyze(samples)
}

// ExtractCredential извлекает учётные данные из одного буфера без gate
// Используется для 1:N идентификации, где gate выполняется один раз
func (e *Engine) ExtractCredential(samples []float32) (*Credential, error) {
	return e.strategy.Extract(samples)
}

// Score сравнивает уже извлечённые учётные данные
func (e *Engine) Score(test, stored *Credential) (*signature.VerificationResult, error) {
	if test.Kind != stored.Kind {
		return nil, fmt.Errorf("%w: %s vs %s", ErrKindMismatch, test.Kind, stored.Kind)
	}
	return e.strategy.Score(test, stored)
}

// Enroll регистрирует спикера по нескольким образцам одной фразы.
// Каждый образец проходит liveness gate до извлечения
func (e *Engine) Enroll(buffers [][]float32) (*Credential, error) {
	if len(buffers) == 0 {
		return nil, signature.ErrNoSignatures
	}

	if e.gate {
		for i, samples := range buffers {
			analysis := e.detector.Analyze(samples)
			if !analysis.IsHuman {
				log.Printf("[Engine] Enrollment sample %d rejected as synthetic (confidence=%.2f)", i, analysis.Confidence)
				return nil, fmt.Errorf("sample %d: synthetic speech suspected (confidence=%.2f)", i, analysis.Confidence)
			}
		}
	}

	cred, err := e.strategy.Enroll(buffers)
	if err != nil {
		return nil, err
	}

	log.Printf("[Engine] Enrolled %s credential from %d samples", cred.Kind, len(buffers))
	return cred, nil
}

// Verify сверяет запись с эталонными учётными данными.
// Liveness gate выполняется первым: синтетический вердикт принудительно
// даёт non-match независимо от сходства подписей
func (e *Engine) Verify(samples []float32, stored *Credential) (*Outcome, error) {
	analysis := e.detector.Analyze(samples)
	outcome := &Outcome{Liveness: &analysis}

	if e.gate && !analysis.IsHuman {
		log.Printf("[Engine] Verification blocked: synthetic speech suspected (confidence=%.2f)", analysis.Confidence)
		return outcome, nil
	}

	test, err := e.strategy.Extract(samples)
	if err != nil {
		return nil, err
	}

	result, err := e.strategy.Score(test, stored)
	if err != nil {
		return nil, err
	}

	outcome.Match = result.Match
	outcome.Confidence = result.Confidence
	outcome.Details = result
	if test.Signature != nil {
		outcome.Degraded = test.Signature.Degraded()
	}

	log.Printf("[Engine] Verification: match=%v, confidence=%.3f (strategy=%s)", outcome.Match, outcome.Confidence, e.strategy.Name())
	return outcome, nil
}

// Close освобождает ресурсы стратегии
func (e *Engine) Close() {
	e.strategy.Close()
}
