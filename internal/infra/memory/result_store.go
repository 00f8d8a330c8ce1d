package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-result-service/internal/domain"
)

// ResultStore keeps results in process. Stored values are copied on the way
// in and out so callers cannot mutate a finished result.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]domain.QuizResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]domain.QuizResult)}
}

func (s *ResultStore) SaveResult(_ context.Context, result domain.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.ID] = cloneResult(result)
	return nil
}

func (s *ResultStore) GetResult(_ context.Context, resultID string) (domain.QuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[resultID]
	if !ok {
		return domain.QuizResult{}, domain.ErrResultNotFound
	}
	return cloneResult(result), nil
}

func (s *ResultStore) UpdateSharing(_ context.Context, resultID string, mode domain.SharingMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.results[resultID]
	if !ok {
		return domain.ErrResultNotFound
	}
	result.Sharing = mode
	s.results[resultID] = result
	return nil
}

func (s *ResultStore) ResultsByUser(_ context.Context, userID string, limit int) ([]domain.QuizResult, error) {
	s.mu.RLock()
	out := make([]domain.QuizResult, 0)
	for _, result := range s.results {
		if result.UserID == userID {
			out = append(out, cloneResult(result))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneResult(r domain.QuizResult) domain.QuizResult {
	r.Recommendations = append([]string(nil), r.Recommendations...)
	r.ProposedCourses = append([]domain.ItemRef{}, r.ProposedCourses...)
	r.ProposedProducts = append([]domain.ItemRef{}, r.ProposedProducts...)
	r.ProposedStreaks = append([]domain.ItemRef{}, r.ProposedStreaks...)
	r.Answers = append([]domain.Answer(nil), r.Answers...)
	return r
}
