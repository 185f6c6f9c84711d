// Package service содержит прикладную логику голосовой аутентификации
// поверх движка и хранилища профилей
package service

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"voicegate/dsp"
	"voicegate/engine"
	"voicegate/liveness"
	"voicegate/media"
	"voicegate/store"
)

// AuthService связывает движок верификации с хранилищем профилей
type AuthService struct {
	Store   *store.Store
	Engine  *engine.Engine
	Matcher *store.Matcher

	// SaveSamples сохранять ли MP3 образец голоса при регистрации
	SaveSamples bool
}

// NewAuthService создаёт сервис аутентификации
func NewAuthService(st *store.Store, eng *engine.Engine) *AuthService {
	return &AuthService{
		Store:       st,
		Engine:      eng,
		Matcher:     store.NewMatcher(st, eng),
		SaveSamples: true,
	}
}

// EnrollProfile регистрирует новый профиль по нескольким образцам фразы
// Каждый образец проходит liveness gate внутри движка
func (s *AuthService) EnrollProfile(name string, buffers [][]float32, source string) (*store.Profile, error) {
	if name == "" {
		return nil, fmt.Errorf("profile name is required")
	}

	cred, err := s.Engine.Enroll(buffers)
	if err != nil {
		return nil, fmt.Errorf("enrollment failed: %w", err)
	}

	profile, err := s.Store.Add(name, cred, source)
	if err != nil {
		return nil, err
	}

	// Сохраняем первый образец рядом с профилем, ошибка не фатальна
	if s.SaveSamples && len(buffers) > 0 {
		if samplePath, err := s.saveSample(profile.ID, buffers[0]); err != nil {
			log.Printf("[Service] Failed to save voice sample: %v", err)
		} else {
			s.Store.SetSamplePath(profile.ID, samplePath)
		}
	}

	return profile, nil
}

func (s *AuthService) saveSample(profileID string, samples []float32) (string, error) {
	dir := s.Store.SamplesDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	samplePath := filepath.Join(dir, profileID+".mp3")
	if err := media.SaveMP3Mono(samplePath, samples, dsp.SampleRate); err != nil {
		return "", err
	}
	return samplePath, nil
}

// VerifyProfile сверяет запись с профилем (1:1)
// При совпадении с высокой уверенностью эталон профиля обновляется
// взвешенным усреднением со свежей записью
func (s *AuthService) VerifyProfile(id string, samples []float32) (*engine.Outcome, error) {
	profile, err := s.Store.Get(id)
	if err != nil {
		return nil, err
	}

	outcome, err := s.Engine.Verify(samples, profile.Credential)
	if err != nil {
		return nil, err
	}

	if outcome.Match {
		if err := s.Store.TouchVerified(id); err != nil {
			log.Printf("[Service] Failed to record verification: %v", err)
		}

		// Обновляем эталон только при высокой уверенности, чтобы
		// пограничные совпадения не размывали профиль
		if outcome.Details != nil && outcome.Details.Details.OverallScore >= store.ThresholdHigh {
			if fresh, err := s.Engine.ExtractCredential(samples); err == nil {
				if err := s.Store.RefreshCredential(id, fresh); err != nil {
					log.Printf("[Service] Failed to refresh credential: %v", err)
				}
			}
		}
	}

	return outcome, nil
}

// Identify ищет владельца записи среди всех профилей (1:N)
// Liveness gate выполняется один раз до перебора профилей
func (s *AuthService) Identify(samples []float32) (*store.MatchResult, *liveness.Analysis, error) {
	analysis := s.Engine.DetectDeepfake(samples)
	if !analysis.IsHuman {
		log.Printf("[Service] Identification blocked: synthetic speech suspected (confidence=%.2f)", analysis.Confidence)
		return nil, &analysis, nil
	}

	cred, err := s.Engine.ExtractCredential(samples)
	if err != nil {
		return nil, &analysis, err
	}

	match := s.Matcher.FindBestMatch(cred)
	if match != nil {
		s.Store.TouchVerified(match.Profile.ID)
	}
	return match, &analysis, nil
}

// IdentifyAll возвращает все профили со счётом выше порога
func (s *AuthService) IdentifyAll(samples []float32, threshold float64) ([]store.MatchResult, error) {
	cred, err := s.Engine.ExtractCredential(samples)
	if err != nil {
		return nil, err
	}
	return s.Matcher.FindAllMatches(cred, threshold), nil
}

// DetectLiveness выполняет только анализ на синтетическую речь
func (s *AuthService) DetectLiveness(samples []float32) liveness.Analysis {
	return s.Engine.DetectDeepfake(samples)
}

// ListProfiles возвращает все профили
func (s *AuthService) ListProfiles() []store.Profile {
	return s.Store.GetAll()
}

// RenameProfile переименовывает профиль
func (s *AuthService) RenameProfile(id, name string) error {
	return s.Store.UpdateName(id, name)
}

// DeleteProfile удаляет профиль и его аудио-образец
func (s *AuthService) DeleteProfile(id string) error {
	profile, err := s.Store.Get(id)
	if err != nil {
		return err
	}

	if err := s.Store.Delete(id); err != nil {
		return err
	}

	if profile.SamplePath != "" {
		os.Remove(profile.SamplePath)
	}
	return nil
}

// Uptime обёртка для диагностики сервиса
type Uptime struct {
	startedAt time.Time
}

// NewUptime фиксирует время старта
func NewUptime() *Uptime {
	return &Uptime{startedAt: time.Now()}
}

// Seconds возвращает время работы в секундах
func (u *Uptime) Seconds() float64 {
	return time.Since(u.startedAt).Seconds()
}
