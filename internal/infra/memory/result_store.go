package memory

import (
	"context"
	"sync"

	"campus-assessment-service/internal/domain"
)

// ResultStore is an in-memory implementation of app.ResultStore. Results
// are append-only; nothing here mutates or removes a stored record.
type ResultStore struct {
	mu      sync.RWMutex
	results []domain.Result
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) Create(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *ResultStore) ByAssessment(_ context.Context, assessmentID string) ([]domain.Result, error) {
	return s.filter(func(r domain.Result) bool {
		return r.AssessmentID == assessmentID
	}), nil
}

func (s *ResultStore) ByUser(_ context.Context, userID, courseID string) ([]domain.Result, error) {
	return s.filter(func(r domain.Result) bool {
		return r.UserID == userID && (courseID == "" || r.CourseID == courseID)
	}), nil
}

func (s *ResultStore) ByCourse(_ context.Context, courseID string) ([]domain.Result, error) {
	return s.filter(func(r domain.Result) bool {
		return r.CourseID == courseID
	}), nil
}

func (s *ResultStore) filter(keep func(domain.Result) bool) []domain.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]domain.Result, 0, len(s.results))
	for _, r := range s.results {
		if keep(r) {
			matched = append(matched, r)
		}
	}
	return matched
}
