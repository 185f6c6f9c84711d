package models

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Manager менеджер моделей speaker embedding
type Manager struct {
	modelsDir string
	mu        sync.Mutex
	downloads map[string]bool
}

// NewManager создаёт новый менеджер моделей
func NewManager(modelsDir string) (*Manager, error) {
	if err := os.MkdirAll(modelsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create models directory: %w", err)
	}

	return &Manager{
		modelsDir: modelsDir,
		downloads: make(map[string]bool),
	}, nil
}

// GetModelsDir возвращает путь к директории моделей
func (m *Manager) GetModelsDir() string {
	return m.modelsDir
}

// GetModelPath возвращает путь к файлу модели
func (m *Manager) GetModelPath(modelID string) string {
	if GetModelByID(modelID) == nil {
		return ""
	}
	return filepath.Join(m.modelsDir, modelID+".onnx")
}

// IsModelDownloaded проверяет, скачана ли модель
func (m *Manager) IsModelDownloaded(modelID string) bool {
	modelPath := m.GetModelPath(modelID)
	if modelPath == "" {
		return false
	}

	stat, err := os.Stat(modelPath)
	if err != nil {
		return false
	}
	// Обрезанный файл не считается скачанным
	return stat.Size() >= 1_000_000
}

// EnsureModel скачивает модель если её ещё нет и возвращает путь к файлу
func (m *Manager) EnsureModel(ctx context.Context, modelID string) (string, error) {
	info := GetModelByID(modelID)
	if info == nil {
		return "", fmt.Errorf("unknown model: %s", modelID)
	}

	modelPath := m.GetModelPath(modelID)
	if m.IsModelDownloaded(modelID) {
		return modelPath, nil
	}

	m.mu.Lock()
	if m.downloads[modelID] {
		m.mu.Unlock()
		return "", fmt.Errorf("model %s is already downloading", modelID)
	}
	m.downloads[modelID] = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.downloads, modelID)
		m.mu.Unlock()
	}()

	log.Printf("[Models] Downloading %s (%s)...", info.Name, info.Size)

	lastLogged := -10.0
	onProgress := func(progress float64) {
		if progress-lastLogged >= 10 {
			lastLogged = progress
			log.Printf("[Models] %s: %.0f%%", modelID, progress)
		}
	}

	if err := DownloadFile(ctx, info.DownloadURL, modelPath, info.SizeBytes, onProgress); err != nil {
		return "", fmt.Errorf("failed to download model %s: %w", modelID, err)
	}

	log.Printf("[Models] Downloaded: %s", modelPath)
	return modelPath, nil
}

// DeleteModel удаляет скачанную модель
func (m *Manager) DeleteModel(modelID string) error {
	if !m.IsModelDownloaded(modelID) {
		return fmt.Errorf("model %s is not downloaded", modelID)
	}

	if err := os.Remove(m.GetModelPath(modelID)); err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}

	log.Printf("[Models] Deleted: %s", modelID)
	return nil
}

// GetAllModelsState возвращает состояние всех моделей
func (m *Manager) GetAllModelsState() []ModelState {
	m.mu.Lock()
	downloading := make(map[string]bool, len(m.downloads))
	for id := range m.downloads {
		downloading[id] = true
	}
	m.mu.Unlock()

	states := make([]ModelState, len(Registry))
	for i, info := range Registry {
		state := ModelState{
			ModelInfo: info,
			Path:      m.GetModelPath(info.ID),
		}
		switch {
		case downloading[info.ID]:
			state.Status = ModelStatusDownloading
		case m.IsModelDownloaded(info.ID):
			state.Status = ModelStatusDownloaded
		default:
			state.Status = ModelStatusNotDownloaded
		}
		states[i] = state
	}

	return states
}
