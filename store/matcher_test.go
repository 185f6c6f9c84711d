package store

import (
	"errors"
	"testing"

	"voicegate/engine"
	"voicegate/signature"
)

// stubScorer возвращает заранее заданный счёт по имени профиля (Mean[0]
// эталона используется как ключ)
type stubScorer struct {
	scores map[float64]float64
	err    error
}

func (s *stubScorer) Score(test, stored *engine.Credential) (*signature.VerificationResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	score := s.scores[stored.Signature.Mean[0]]
	result := &signature.VerificationResult{Match: score >= ThresholdMin, Confidence: score}
	result.Details.OverallScore = score
	return result, nil
}

func seedProfiles(t *testing.T, s *Store, keys ...float64) {
	t.Helper()
	for _, key := range keys {
		cred := testCredential()
		cred.Signature.Mean[0] = key
		if _, err := s.Add("profile", cred, "file"); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
}

func TestFindBestMatch(t *testing.T) {
	s := newTestStore(t)
	seedProfiles(t, s, 1, 2, 3)

	scorer := &stubScorer{scores: map[float64]float64{1: 0.65, 2: 0.93, 3: 0.75}}
	m := NewMatcher(s, scorer)

	match := m.FindBestMatch(testCredential())
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.Score != 0.93 {
		t.Errorf("score = %v, want 0.93", match.Score)
	}
	if match.Confidence != "high" {
		t.Errorf("confidence = %q, want high", match.Confidence)
	}
	if match.Profile.Credential.Signature.Mean[0] != 2 {
		t.Errorf("wrong profile selected: %+v", match.Profile)
	}
}

func TestFindBestMatchBelowThreshold(t *testing.T) {
	s := newTestStore(t)
	seedProfiles(t, s, 1, 2)

	scorer := &stubScorer{scores: map[float64]float64{1: 0.2, 2: 0.55}}
	m := NewMatcher(s, scorer)

	if match := m.FindBestMatch(testCredential()); match != nil {
		t.Fatalf("scores below minimum must give no match, got %+v", match)
	}
}

func TestFindBestMatchEmptyStore(t *testing.T) {
	m := NewMatcher(newTestStore(t), &stubScorer{})
	if match := m.FindBestMatch(testCredential()); match != nil {
		t.Fatalf("empty store must give no match, got %+v", match)
	}
}

func TestFindBestMatchSkipsKindMismatch(t *testing.T) {
	s := newTestStore(t)
	seedProfiles(t, s, 1)

	scorer := &stubScorer{scores: map[float64]float64{1: 0.99}}
	m := NewMatcher(s, scorer)

	embedding := &engine.Credential{Kind: engine.KindEmbedding, Embedding: []float64{1, 0}}
	if match := m.FindBestMatch(embedding); match != nil {
		t.Fatalf("statistical profiles must be skipped for embedding query, got %+v", match)
	}
}

func TestFindBestMatchSkipsScorerErrors(t *testing.T) {
	s := newTestStore(t)
	seedProfiles(t, s, 1)

	m := NewMatcher(s, &stubScorer{err: errors.New("backend down")})
	if match := m.FindBestMatch(testCredential()); match != nil {
		t.Fatalf("scorer errors must be skipped, got %+v", match)
	}
}

func TestFindAllMatchesSorted(t *testing.T) {
	s := newTestStore(t)
	seedProfiles(t, s, 1, 2, 3, 4)

	scorer := &stubScorer{scores: map[float64]float64{1: 0.65, 2: 0.91, 3: 0.45, 4: 0.82}}
	m := NewMatcher(s, scorer)

	matches := m.FindAllMatches(testCredential(), ThresholdLow)
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}

	// По убыванию счёта
	want := []float64{0.91, 0.82, 0.65}
	for i, m := range matches {
		if m.Score != want[i] {
			t.Errorf("match %d score = %v, want %v", i, m.Score, want[i])
		}
	}
	if matches[0].Confidence != "medium" || matches[2].Confidence != "low" {
		t.Errorf("unexpected confidence levels: %+v", matches)
	}
}
