package store

import (
	"log"
	"sort"

	"voicegate/engine"
	"voicegate/signature"
)

// Scorer сравнивает извлечённые учётные данные с эталонными
// Реализуется движком аутентификации
type Scorer interface {
	Score(test, stored *engine.Credential) (*signature.VerificationResult, error)
}

// Matcher выполняет 1:N идентификацию по зарегистрированным профилям
type Matcher struct {
	store  *Store
	scorer Scorer
}

// NewMatcher создаёт новый matcher
func NewMatcher(store *Store, scorer Scorer) *Matcher {
	return &Matcher{store: store, scorer: scorer}
}

// FindBestMatch ищет лучшее совпадение для учётных данных
// Возвращает nil если совпадение не найдено (score < ThresholdMin)
func (m *Matcher) FindBestMatch(test *engine.Credential) *MatchResult {
	if m.store == nil {
		return nil
	}

	profiles := m.store.GetAll()
	if len(profiles) == 0 {
		return nil
	}

	var bestMatch *MatchResult
	bestScore := 0.0

	for i := range profiles {
		p := &profiles[i]
		if p.Credential == nil || p.Credential.Kind != test.Kind {
			continue
		}

		result, err := m.scorer.Score(test, p.Credential)
		if err != nil {
			continue
		}

		score := result.Details.OverallScore
		if score > bestScore && score >= ThresholdMin {
			bestScore = score
			// Копируем чтобы избежать указателя на элемент slice
			pCopy := *p
			bestMatch = &MatchResult{
				Profile:    &pCopy,
				Score:      score,
				Confidence: GetConfidence(score),
			}
		}
	}

	if bestMatch != nil {
		log.Printf("[Store] Match found: %s (score=%.2f, confidence=%s)",
			bestMatch.Profile.Name, bestMatch.Score, bestMatch.Confidence)
	}

	return bestMatch
}

// FindAllMatches возвращает все совпадения выше порога (по убыванию счёта)
func (m *Matcher) FindAllMatches(test *engine.Credential, threshold float64) []MatchResult {
	if m.store == nil {
		return nil
	}

	var matches []MatchResult
	profiles := m.store.GetAll()

	for i := range profiles {
		p := &profiles[i]
		if p.Credential == nil || p.Credential.Kind != test.Kind {
			continue
		}

		result, err := m.scorer.Score(test, p.Credential)
		if err != nil {
			continue
		}

		score := result.Details.OverallScore
		if score >= threshold {
			pCopy := *p
			matches = append(matches, MatchResult{
				Profile:    &pCopy,
				Score:      score,
				Confidence: GetConfidence(score),
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}
