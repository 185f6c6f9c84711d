// Package store предоставляет файловое хранилище зарегистрированных
// голосовых профилей для верификации между сессиями
package store

import (
	"time"

	"voicegate/engine"
)

// Profile зарегистрированный голосовой профиль
type Profile struct {
	ID         string             `json:"id"`         // UUID
	Name       string             `json:"name"`       // Имя пользователя
	Credential *engine.Credential `json:"credential"` // Эталонные учётные данные
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
	// LastVerifiedAt время последней успешной верификации
	LastVerifiedAt time.Time `json:"lastVerifiedAt"`
	// VerifyCount количество успешных верификаций (для взвешенного обновления)
	VerifyCount int `json:"verifyCount"`

	// Опционально: путь к аудио-сэмплу голоса
	SamplePath string `json:"samplePath,omitempty"`

	// Метаданные
	Source string `json:"source,omitempty"` // "mic", "file" или "ws"
	Notes  string `json:"notes,omitempty"`
}

// profileFile структура для хранения в JSON файле
type profileFile struct {
	Version  int       `json:"version"`  // Версия формата (для миграций)
	Profiles []Profile `json:"profiles"` // Список профилей
}

// MatchResult результат поиска совпадения при 1:N идентификации
type MatchResult struct {
	Profile    *Profile
	Score      float64 // Композитный счёт или косинусное сходство (0-1)
	Confidence string  // "high", "medium", "low", "none"
}

// Пороги уверенности идентификации
const (
	ThresholdHigh   = 0.92 // Высокая уверенность - автоматическое принятие
	ThresholdMedium = 0.80 // Средняя - предложить подтверждение
	ThresholdLow    = 0.60 // Низкая - возможное совпадение
	ThresholdMin    = 0.60 // Минимальный порог для любого совпадения
)

// GetConfidence возвращает уровень уверенности для счёта сходства
func GetConfidence(score float64) string {
	switch {
	case score >= ThresholdHigh:
		return "high"
	case score >= ThresholdMedium:
		return "medium"
	case score >= ThresholdLow:
		return "low"
	default:
		return "none"
	}
}

// CurrentVersion текущая версия формата хранения
// v1 хранил подпись как голый массив коэффициентов; он читается через
// legacy-декодер подписи и пересохраняется в современном виде
const CurrentVersion = 2
