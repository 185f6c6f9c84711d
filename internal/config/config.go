package config

import (
	"flag"
	"path/filepath"
)

type Config struct {
	DataDir   string
	ModelsDir string
	Port      string

	// Strategy: "statistical" (встроенное MFCC ядро) или "embedding"
	Strategy string
	// ModelID модель speaker embedding из реестра (для strategy=embedding)
	ModelID string
	// Backend ONNX backend: "sherpa" или "onnxruntime"
	Backend string
	// Provider провайдер sherpa-onnx ("cpu", "coreml", "cuda"; пусто - автовыбор)
	Provider string
	// Threshold порог верификации (0 - порог стратегии по умолчанию)
	Threshold float64
	// PipeName именованный канал gRPC управления (пусто - отключено)
	PipeName string
	// MicDevice имя микрофона для захвата (пусто - по умолчанию)
	MicDevice string
}

func Load() *Config {
	dataDir := flag.String("data", "data/profiles", "Directory for profile data")
	modelsDir := flag.String("models", "", "Directory for downloaded models (default: dataDir/../models)")
	port := flag.String("port", "8090", "Server port")
	strategy := flag.String("strategy", "statistical", "Verification strategy: statistical or embedding")
	modelID := flag.String("embedding-model", "wespeaker-voxceleb-resnet34", "Speaker embedding model ID")
	backend := flag.String("backend", "sherpa", "Embedding backend: sherpa or onnxruntime")
	provider := flag.String("provider", "", "sherpa-onnx provider (cpu, coreml, cuda; empty = auto)")
	threshold := flag.Float64("threshold", 0, "Verification threshold (0 = strategy default)")
	pipeName := flag.String("pipe", "", "Named pipe for the gRPC control channel (empty = disabled)")
	micDevice := flag.String("mic", "", "Microphone device name (empty = default)")
	flag.Parse()

	finalModelsDir := *modelsDir
	if finalModelsDir == "" {
		finalModelsDir = filepath.Join(filepath.Dir(*dataDir), "models")
	}

	return &Config{
		DataDir:   *dataDir,
		ModelsDir: finalModelsDir,
		Port:      *port,
		Strategy:  *strategy,
		ModelID:   *modelID,
		Backend:   *backend,
		Provider:  *provider,
		Threshold: *threshold,
		PipeName:  *pipeName,
		MicDevice: *micDevice,
	}
}
