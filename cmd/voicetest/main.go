// Тест голосовой аутентификации на файлах
// Запуск:
//
//	go run ./cmd/voicetest -enroll "Alice" -files a1.mp3,a2.mp3,a3.mp3
//	go run ./cmd/voicetest -verify <profileId> -files probe.mp3
//	go run ./cmd/voicetest -identify -files probe.mp3
//	go run ./cmd/voicetest -liveness -files probe.mp3
package main

import (
	"flag"
	"log"
	"path/filepath"
	"strings"

	"voicegate/dsp"
	"voicegate/engine"
	"voicegate/internal/service"
	"voicegate/media"
	"voicegate/store"
)

func main() {
	enrollName := flag.String("enroll", "", "Enroll a new profile with this name")
	verifyID := flag.String("verify", "", "Verify against this profile ID")
	identify := flag.Bool("identify", false, "Identify the speaker among all profiles")
	livenessOnly := flag.Bool("liveness", false, "Run only the deepfake detector")
	files := flag.String("files", "", "Comma-separated audio files (mp3 or wav)")
	dataDir := flag.String("data", "data/profiles", "Directory for profile data")
	list := flag.Bool("list", false, "List enrolled profiles")
	flag.Parse()

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

	if *list {
		for _, p := range auth.ListProfiles() {
			log.Printf("%s  %-20s verifyCount=%d", p.ID, p.Name, p.VerifyCount)
		}
		return
	}

	buffers := loadFiles(*files)

	switch {
	case *livenessOnly:
		requireFiles(buffers, 1)
		analysis := auth.DetectLiveness(buffers[0])
		log.Printf("IsHuman=%v confidence=%.2f", analysis.IsHuman, analysis.Confidence)
		for _, reason := range analysis.Reasons {
			log.Printf("  - %s", reason)
		}

	case *enrollName != "":
		requireFiles(buffers, 1)
		profile, err := auth.EnrollProfile(*enrollName, buffers, "file")
		if err != nil {
			log.Fatalf("Регистрация не удалась: %v", err)
		}
		log.Printf("Профиль зарегистрирован: %s (%s)", profile.Name, profile.ID)

	case *verifyID != "":
		requireFiles(buffers, 1)
		outcome, err := auth.VerifyProfile(*verifyID, buffers[0])
		if err != nil {
			log.Fatalf("Верификация не удалась: %v", err)
		}
		log.Printf("match=%v confidence=%.3f degraded=%v", outcome.Match, outcome.Confidence, outcome.Degraded)
		if outcome.Details != nil {
			d := outcome.Details.Details
			log.Printf("  mean=%.3f (passed=%v) variance=%.3f (passed=%v) overall=%.3f",
				d.MeanSimilarity, d.MeanPassed, d.VarianceSimilarity, d.VariancePassed, d.OverallScore)
		}
		if outcome.Liveness != nil && !outcome.Liveness.IsHuman {
			log.Printf("  БЛОКИРОВКА: подозрение на синтетическую речь (%.2f)", outcome.Liveness.Confidence)
		}

	case *identify:
		requireFiles(buffers, 1)
		match, analysis, err := auth.Identify(buffers[0])
		if err != nil {
			log.Fatalf("Идентификация не удалась: %v", err)
		}
		if analysis != nil && !analysis.IsHuman {
			log.Printf("БЛОКИРОВКА: подозрение на синтетическую речь (%.2f)", analysis.Confidence)
			return
		}
		if match == nil {
			log.Println("Совпадений не найдено")
			return
		}
		log.Printf("Найден: %s (score=%.3f, confidence=%s)", match.Profile.Name, match.Score, match.Confidence)

	default:
		flag.Usage()
	}
}

func loadFiles(files string) [][]float32 {
	if files == "" {
		return nil
	}

	var buffers [][]float32
	for _, path := range strings.Split(files, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}

		var samples []float32
		var err error
		switch strings.ToLower(filepath.Ext(path)) {
		case ".mp3":
			samples, err = media.LoadMP3Mono(path, dsp.SampleRate)
		case ".wav":
			samples, err = media.LoadWAVMono(path, dsp.SampleRate)
		default:
			log.Fatalf("Неизвестный формат файла: %s", path)
		}
		if err != nil {
			log.Fatalf("Ошибка чтения %s: %v", path, err)
		}
		log.Printf("Загружен %s: %.1f сек", path, float64(len(samples))/dsp.SampleRate)
		buffers = append(buffers, samples)
	}
	return buffers
}

func requireFiles(buffers [][]float32, min int) {
	if len(buffers) < min {
		log.Fatalf("Нужно минимум %d аудио-файлов (-files)", min)
	}
}
