package api

import (
	"voicegate/audio"
	"voicegate/engine"
	"voicegate/liveness"
	"voicegate/models"
	"voicegate/store"
)

// Message WebSocket message structure
// Аудио передаётся как base64 PCM16 little-endian, 16 kHz моно
type Message struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`

	// Запросы
	ProfileID string   `json:"profileId,omitempty"`
	Name      string   `json:"name,omitempty"`
	Audio     string   `json:"audio,omitempty"`   // Одна запись (base64 PCM16)
	Samples   []string `json:"samples,omitempty"` // Образцы для регистрации (base64 PCM16)
	Threshold float64  `json:"threshold,omitempty"`

	// Ответы
	Profile  *store.Profile      `json:"profile,omitempty"`
	Profiles []store.Profile     `json:"profiles,omitempty"`
	Outcome  *engine.Outcome     `json:"outcome,omitempty"`
	Match    *store.MatchResult  `json:"match,omitempty"`
	Matches  []store.MatchResult `json:"matches,omitempty"`
	Liveness *liveness.Analysis  `json:"liveness,omitempty"`

	// Devices
	Devices []audio.Device `json:"devices,omitempty"`

	// Models
	Models   []models.ModelState `json:"models,omitempty"`
	ModelID  string              `json:"modelId,omitempty"`
	Progress float64             `json:"progress,omitempty"`
	Error    string              `json:"error,omitempty"`

	// Status
	Strategy      string  `json:"strategy,omitempty"`
	ProfileCount  int     `json:"profileCount,omitempty"`
	UptimeSeconds float64 `json:"uptimeSeconds,omitempty"`
}
