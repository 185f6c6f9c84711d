package embedding

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"
)

// SherpaEncoderConfig конфигурация sherpa-onnx энкодера
type SherpaEncoderConfig struct {
	ModelPath  string
	SampleRate int
	NumThreads int
	Provider   string // cpu, cuda, coreml, auto
}

// detectBestProvider определяет лучший provider для текущей платформы
func detectBestProvider() string {
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		return "coreml"
	}
	return "cpu"
}

// DefaultSherpaEncoderConfig возвращает конфигурацию по умолчанию
func DefaultSherpaEncoderConfig(modelPath string) SherpaEncoderConfig {
	return SherpaEncoderConfig{
		ModelPath:  modelPath,
		SampleRate: 16000,
		NumThreads: 4,
		Provider:   "auto",
	}
}

// SherpaEncoder извлекает эмбеддинги через sherpa-onnx
// Альтернативный бэкенд для тех же моделей wespeaker/3dspeaker
type SherpaEncoder struct {
	config    SherpaEncoderConfig
	extractor *sherpa.SpeakerEmbeddingExtractor
	mu        sync.Mutex
}

// NewSherpaEncoder создаёт энкодер на базе sherpa-onnx
func NewSherpaEncoder(config SherpaEncoderConfig) (*SherpaEncoder, error) {
	if _, err := os.Stat(config.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("embedding model not found: %s", config.ModelPath)
	}

	provider := config.Provider
	if provider == "auto" || provider == "" {
		provider = detectBestProvider()
	}

	sherpaConfig := sherpa.SpeakerEmbeddingExtractorConfig{
		Model:      config.ModelPath,
		NumThreads: config.NumThreads,
		Provider:   provider,
	}

	extractor := sherpa.NewSpeakerEmbeddingExtractor(&sherpaConfig)
	if extractor == nil {
		return nil, fmt.Errorf("failed to create speaker embedding extractor (provider=%s)", provider)
	}

	log.Printf("[Embedding] Sherpa encoder initialized: dim=%d, provider=%s", extractor.Dim(), provider)

	return &SherpaEncoder{
		config:    config,
		extractor: extractor,
	}, nil
}

// Encode извлекает эмбеддинг из аудио
func (e *SherpaEncoder) Encode(samples []float32) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.extractor == nil {
		return nil, fmt.Errorf("encoder is closed")
	}

	if len(samples) < e.config.SampleRate/10 {
		return nil, fmt.Errorf("audio too short")
	}

	stream := e.extractor.CreateStream()
	if stream == nil {
		return nil, fmt.Errorf("failed to create stream")
	}
	defer sherpa.DeleteOnlineStream(stream)

	stream.AcceptWaveform(e.config.SampleRate, samples)
	stream.InputFinished()

	if !e.extractor.IsReady(stream) {
		return nil, fmt.Errorf("not enough audio for embedding")
	}

	return Normalize(e.extractor.Compute(stream)), nil
}

// Dim возвращает размерность эмбеддинга
func (e *SherpaEncoder) Dim() int {
	if e.extractor == nil {
		return 0
	}
	return e.extractor.Dim()
}

// Name возвращает имя бэкенда
func (e *SherpaEncoder) Name() string {
	return "sherpa-onnx"
}

// Close освобождает нативные ресурсы
func (e *SherpaEncoder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.extractor != nil {
		sherpa.DeleteSpeakerEmbeddingExtractor(e.extractor)
		e.extractor = nil
	}
}
