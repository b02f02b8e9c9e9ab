package memory

import (
	"sync"
	"time"

	"campus-assessment-service/internal/app"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
// Each attempt carries its own lock; this map only guards membership.
type AttemptStore struct {
	clock    func() time.Time
	mu       sync.RWMutex
	attempts map[attemptKey]*app.Attempt
}

type attemptKey struct {
	assessmentID string
	userID       string
}

func NewAttemptStore() *AttemptStore {
	return NewAttemptStoreWithClock(time.Now)
}

// NewAttemptStoreWithClock allows deterministic timestamps in tests.
func NewAttemptStoreWithClock(clock func() time.Time) *AttemptStore {
	return &AttemptStore{
		clock:    clock,
		attempts: make(map[attemptKey]*app.Attempt),
	}
}

func (s *AttemptStore) GetOrCreate(assessmentID, userID string) *app.Attempt {
	key := attemptKey{assessmentID, userID}

	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt, ok := s.attempts[key]; ok {
		return attempt
	}
	attempt := app.NewAttemptWithClock(assessmentID, userID, s.clock)
	s.attempts[key] = attempt
	return attempt
}

func (s *AttemptStore) Get(assessmentID, userID string) (*app.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptKey{assessmentID, userID}]
	return attempt, ok
}
