// Тест голосовой аутентификации с микрофона
// Запуск: go run ./cmd/mictest -name "Alice"
//
// Записывает три образца фразы для регистрации, затем контрольную
// запись и показывает результат верификации
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"voicegate/audio"
	"voicegate/engine"
	"voicegate/internal/service"
	"voicegate/store"
)

const (
	recordDuration = 3 * time.Second
	enrollSamples  = 3
)

func main() {
	name := flag.String("name", "mictest", "Profile name")
	device := flag.String("mic", "", "Microphone device name (empty = default)")
	dataDir := flag.String("data", "data/profiles", "Directory for profile data")
	flag.Parse()

	log.Println("=== Тест голосовой аутентификации с микрофона ===")

	capture, err := audio.NewCapture()
	if err != nil {
		log.Fatalf("Ошибка инициализации аудио: %v", err)
	}
	defer capture.Close()

	if *device != "" {
		if err := capture.SetDeviceByName(*device); err != nil {
			log.Fatalf("Ошибка выбора микрофона: %v", err)
		}
	}

	if err := capture.Start(); err != nil {
		log.Fatalf("Ошибка запуска захвата: %v", err)
	}
	defer capture.Stop()

	profileStore, err := store.NewStore(*dataDir)
	if err != nil {
		log.Fatalf("Ошибка инициализации хранилища: %v", err)
	}

	eng, err := engine.New(engine.DefaultConfig())
	if err != nil {
		log.Fatalf("Ошибка инициализации движка: %v", err)
	}
	defer eng.Close()

	auth := service.NewAuthService(profileStore, eng)
	ctx := context.Background()

	// Регистрация: несколько образцов одной фразы
	buffers := make([][]float32, 0, enrollSamples)
	for i := 0; i < enrollSamples; i++ {
		log.Printf("Образец %d/%d: произнесите фразу (%.0f сек)...", i+1, enrollSamples, recordDuration.Seconds())
		samples, err := capture.Record(ctx, recordDuration)
		if err != nil {
			log.Fatalf("Ошибка записи: %v", err)
		}
		buffers = append(buffers, samples)
		time.Sleep(500 * time.Millisecond)
	}

	profile, err := auth.EnrollProfile(*name, buffers, "mic")
	if err != nil {
		log.Fatalf("Регистрация не удалась: %v", err)
	}
	log.Printf("Профиль зарегистрирован: %s (%s)", profile.Name, profile.ID)

	// Контрольная верификация
	log.Printf("Контроль: произнесите ту же фразу (%.0f сек)...", recordDuration.Seconds())
	probe, err := capture.Record(ctx, recordDuration)
	if err != nil {
		log.Fatalf("Ошибка записи: %v", err)
	}

	outcome, err := auth.VerifyProfile(profile.ID, probe)
	if err != nil {
		log.Fatalf("Верификация не удалась: %v", err)
	}

	log.Println("=== Результат ===")
	log.Printf("match=%v confidence=%.3f", outcome.Match, outcome.Confidence)
	if outcome.Liveness != nil {
		log.Printf("liveness: isHuman=%v confidence=%.2f", outcome.Liveness.IsHuman, outcome.Liveness.Confidence)
	}
	if outcome.Details != nil {
		d := outcome.Details.Details
		log.Printf("mean=%.3f variance=%.3f overall=%.3f", d.MeanSimilarity, d.VarianceSimilarity, d.OverallScore)
	}
}
