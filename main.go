package main

import (
	"context"
	"log"

	"voicegate/audio"
	"voicegate/embedding"
	"voicegate/engine"
	"voicegate/internal/api"
	"voicegate/internal/config"
	"voicegate/internal/service"
	"voicegate/models"
	"voicegate/store"
)

func main() {
	log.Println("VoiceGate backend starting...")

	cfg := config.Load()
	log.Printf("Data directory: %s", cfg.DataDir)
	log.Printf("Models directory: %s", cfg.ModelsDir)
	log.Printf("Strategy: %s", cfg.Strategy)

	// Initialize Store
	profileStore, err := store.NewStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to init profile store: %v", err)
	}

	// Initialize Model Manager
	modelMgr, err := models.NewManager(cfg.ModelsDir)
	if err != nil {
		log.Fatalf("Failed to init model manager: %v", err)
	}

	// Initialize Engine
	engineConfig := engine.DefaultConfig()
	engineConfig.Strategy = cfg.Strategy
	engineConfig.Threshold = cfg.Threshold

	if cfg.Strategy == engine.KindEmbedding {
		modelPath, err := modelMgr.EnsureModel(context.Background(), cfg.ModelID)
		if err != nil {
			log.Fatalf("Failed to prepare embedding model: %v", err)
		}

		encoder, err := newEncoder(cfg, modelPath)
		if err != nil {
			log.Fatalf("Failed to init encoder: %v", err)
		}
		engineConfig.Encoder = encoder
	}

	eng, err := engine.New(engineConfig)
	if err != nil {
		log.Fatalf("Failed to init engine: %v", err)
	}
	defer eng.Close()
	log.Printf("Engine initialized (strategy=%s)", eng.StrategyName())

	// Initialize Auth Service
	authService := service.NewAuthService(profileStore, eng)

	// Initialize Audio (не фатально: сервер работает и без микрофона,
	// принимая аудио через WebSocket)
	var capture *audio.Capture
	if cap, err := audio.NewCapture(); err != nil {
		log.Printf("Warning: audio capture unavailable: %v", err)
	} else {
		capture = cap
		defer capture.Close()
		if cfg.MicDevice != "" {
			if err := capture.SetDeviceByName(cfg.MicDevice); err != nil {
				log.Printf("Warning: %v", err)
			}
		}
	}

	server := api.NewServer(cfg, authService, modelMgr, capture)

	if cfg.PipeName != "" {
		go server.StartGRPC()
	}

	server.Start()
}

// newEncoder создаёт ONNX энкодер выбранного бэкенда
func newEncoder(cfg *config.Config, modelPath string) (embedding.Encoder, error) {
	switch cfg.Backend {
	case "onnxruntime":
		return embedding.NewONNXEncoder(embedding.DefaultONNXEncoderConfig(modelPath))
	default:
		sherpaConfig := embedding.DefaultSherpaEncoderConfig(modelPath)
		if cfg.Provider != "" {
			sherpaConfig.Provider = cfg.Provider
		}
		return embedding.NewSherpaEncoder(sherpaConfig)
	}
}
