package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"voicegate/engine"
	"voicegate/signature"
)

// maxRefreshWeight ограничивает вес накопленного эталона при взвешенном
// обновлении, чтобы профиль не застывал навсегда
const maxRefreshWeight = 10

// Store хранилище голосовых профилей
// Запись атомарная (через временный файл), формат версионируется
type Store struct {
	path string
	data profileFile
	mu   sync.RWMutex
}

// NewStore создаёт хранилище профилей
// dataDir - директория с данными приложения; profiles.json лежит внутри неё
func NewStore(dataDir string) (*Store, error) {
	path := filepath.Join(dataDir, "profiles.json")

	store := &Store{
		path: path,
		data: profileFile{Version: CurrentVersion},
	}

	if err := store.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	log.Printf("[Store] Initialized: %s (%d profiles)", path, len(store.data.Profiles))
	return store, nil
}

// load загружает данные из файла
func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, &s.data); err != nil {
		return fmt.Errorf("failed to parse profiles.json: %w", err)
	}

	if s.data.Version < CurrentVersion {
		if err := s.migrate(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// migrate выполняет миграцию формата
func (s *Store) migrate() error {
	switch s.data.Version {
	case 0, 1:
		// v0/v1: подписи в legacy-виде уже развёрнуты при чтении
		// (VoiceSignature понимает голый массив коэффициентов);
		// пересохраняем в современном виде
		log.Printf("[Store] Migrating profiles.json v%d -> v%d", s.data.Version, CurrentVersion)
		s.data.Version = CurrentVersion
		return s.saveUnsafe()
	default:
		return nil
	}
}

// save сохраняет данные в файл (атомарно)
func (s *Store) save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveUnsafe()
}

// saveUnsafe сохраняет без блокировки (вызывать только при удержании lock)
func (s *Store) saveUnsafe() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Атомарная запись через временный файл
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath) // Cleanup
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// GetAll возвращает копию всех профилей
// Учётные данные копируются глубоко: RefreshCredential мутирует вектора
// на месте, и читатель вне блокировки не должен разделять с ними память
func (s *Store) GetAll() []Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Profile, len(s.data.Profiles))
	for i := range s.data.Profiles {
		result[i] = s.data.Profiles[i]
		result[i].Credential = s.data.Profiles[i].Credential.Clone()
	}
	return result
}

// Get возвращает профиль по ID (глубокая копия, см. GetAll)
func (s *Store) Get(id string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.data.Profiles {
		if s.data.Profiles[i].ID == id {
			p := s.data.Profiles[i]
			p.Credential = p.Credential.Clone()
			return &p, nil
		}
	}

	return nil, fmt.Errorf("profile not found: %s", id)
}

// Add добавляет новый профиль
func (s *Store) Add(name string, cred *engine.Credential, source string) (*Profile, error) {
	if cred == nil {
		return nil, fmt.Errorf("nil credential")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	p := Profile{
		ID:         uuid.New().String(),
		Name:       name,
		Credential: cred,
		CreatedAt:  now,
		UpdatedAt:  now,
		Source:     source,
	}

	s.data.Profiles = append(s.data.Profiles, p)

	if err := s.saveUnsafe(); err != nil {
		// Откатываем изменения
		s.data.Profiles = s.data.Profiles[:len(s.data.Profiles)-1]
		return nil, err
	}

	log.Printf("[Store] Added profile: %s (%s)", p.Name, p.ID[:8])
	return &p, nil
}

// UpdateName обновляет имя профиля
func (s *Store) UpdateName(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Profiles {
		if s.data.Profiles[i].ID == id {
			s.data.Profiles[i].Name = name
			s.data.Profiles[i].UpdatedAt = time.Now()
			return s.saveUnsafe()
		}
	}

	return fmt.Errorf("profile not found: %s", id)
}

// TouchVerified отмечает успешную верификацию профиля
func (s *Store) TouchVerified(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Profiles {
		if s.data.Profiles[i].ID == id {
			s.data.Profiles[i].VerifyCount++
			s.data.Profiles[i].LastVerifiedAt = time.Now()
			return s.saveUnsafe()
		}
	}

	return fmt.Errorf("profile not found: %s", id)
}

// RefreshCredential обновляет эталон взвешенным усреднением с новыми
// учётными данными: новый образец имеет вес 1, накопленный эталон - вес
// VerifyCount (но не больше maxRefreshWeight)
func (s *Store) RefreshCredential(id string, fresh *engine.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Profiles {
		if s.data.Profiles[i].ID != id {
			continue
		}

		p := &s.data.Profiles[i]
		if p.Credential == nil || p.Credential.Kind != fresh.Kind {
			return fmt.Errorf("credential kind mismatch for profile %s", id)
		}

		oldWeight := float64(p.VerifyCount)
		if oldWeight > maxRefreshWeight {
			oldWeight = maxRefreshWeight
		}
		if oldWeight < 1 {
			oldWeight = 1
		}
		total := oldWeight + 1

		switch fresh.Kind {
		case engine.KindStatistical:
			blendSignature(p.Credential.Signature, fresh.Signature, oldWeight, total)
		case engine.KindEmbedding:
			for j := range p.Credential.Embedding {
				p.Credential.Embedding[j] = (p.Credential.Embedding[j]*oldWeight + fresh.Embedding[j]) / total
			}
		}

		p.VerifyCount++
		p.LastVerifiedAt = time.Now()
		p.UpdatedAt = time.Now()

		log.Printf("[Store] Credential refreshed: %s (verifyCount=%d)", p.Name, p.VerifyCount)
		return s.saveUnsafe()
	}

	return fmt.Errorf("profile not found: %s", id)
}

// blendSignature взвешенно смешивает свежую подпись в накопленную
func blendSignature(acc, fresh *signature.VoiceSignature, oldWeight, total float64) {
	if acc == nil || fresh == nil || len(acc.Mean) != len(fresh.Mean) {
		return
	}
	for j := range acc.Mean {
		acc.Mean[j] = (acc.Mean[j]*oldWeight + fresh.Mean[j]) / total
		acc.Variance[j] = (acc.Variance[j]*oldWeight + fresh.Variance[j]) / total
		acc.DeltaMean[j] = (acc.DeltaMean[j]*oldWeight + fresh.DeltaMean[j]) / total
	}
	acc.Energy = (acc.Energy*oldWeight + fresh.Energy) / total
	acc.ZeroCrossingRate = (acc.ZeroCrossingRate*oldWeight + fresh.ZeroCrossingRate) / total
	acc.FrameCount = (acc.FrameCount*oldWeight + fresh.FrameCount) / total
}

// SetSamplePath устанавливает путь к аудио-сэмплу профиля
func (s *Store) SetSamplePath(id, samplePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Profiles {
		if s.data.Profiles[i].ID == id {
			s.data.Profiles[i].SamplePath = samplePath
			s.data.Profiles[i].UpdatedAt = time.Now()
			return s.saveUnsafe()
		}
	}

	return fmt.Errorf("profile not found: %s", id)
}

// Delete удаляет профиль
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Profiles {
		if s.data.Profiles[i].ID == id {
			name := s.data.Profiles[i].Name
			s.data.Profiles = append(
				s.data.Profiles[:i],
				s.data.Profiles[i+1:]...,
			)
			if err := s.saveUnsafe(); err != nil {
				return err
			}
			log.Printf("[Store] Deleted profile: %s (%s)", name, id[:8])
			return nil
		}
	}

	return fmt.Errorf("profile not found: %s", id)
}

// Count возвращает количество профилей
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Profiles)
}

// SamplesDir возвращает директорию для аудио-сэмплов профилей
func (s *Store) SamplesDir() string {
	return filepath.Join(filepath.Dir(s.path), "samples")
}
