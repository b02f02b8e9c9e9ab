package app

import (
	"context"
	"sync"
	"time"

	"campus-assessment-service/internal/domain"

	"go.uber.org/zap"
)

// EventSink receives QuizEvents as they are emitted. Delivery is
// best-effort from the sequencer's perspective: a failing sink is logged
// and never fails the academic transaction.
type EventSink interface {
	Publish(ctx context.Context, event domain.QuizEvent) error
}

// AttemptRepository abstracts how attempt state is stored (in-memory, Redis, etc).
type AttemptRepository interface {
	GetOrCreate(assessmentID, userID string) *Attempt
	Get(assessmentID, userID string) (*Attempt, bool)
}

// AttemptState is the lifecycle position of one (assessment, user) attempt.
type AttemptState int

const (
	AttemptNotStarted AttemptState = iota
	AttemptStarted
	AttemptInProgress
	AttemptSubmitted
)

// Attempt tracks one attempt key's state machine and sequence counter.
// All transitions happen under the attempt's own mutex, so unrelated
// attempts never contend.
type Attempt struct {
	assessmentID string
	userID       string
	now          func() time.Time

	mu        sync.Mutex
	state     AttemptState
	seq       uint64
	startedAt time.Time
}

// NewAttempt is exported for infrastructure layers that need to seed attempts.
func NewAttempt(assessmentID, userID string) *Attempt {
	return NewAttemptWithClock(assessmentID, userID, time.Now)
}

// NewAttemptWithClock allows deterministic timestamps in tests.
func NewAttemptWithClock(assessmentID, userID string, now func() time.Time) *Attempt {
	return &Attempt{
		assessmentID: assessmentID,
		userID:       userID,
		now:          now,
		state:        AttemptNotStarted,
	}
}

// State reports the attempt's current lifecycle position.
func (a *Attempt) State() AttemptState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// nextEventLocked assigns the next sequence number and stamps the event.
// Callers must hold a.mu. The counter never moves backwards, even when a
// later delivery fails; the sequencer guarantees emission order, not
// delivery success.
func (a *Attempt) nextEventLocked(kind domain.EventType, questionID string) domain.QuizEvent {
	a.seq++
	return domain.QuizEvent{
		Type:         kind,
		AssessmentID: a.assessmentID,
		UserID:       a.userID,
		QuestionID:   questionID,
		Seq:          a.seq,
		At:           a.now(),
	}
}

// Sequencer builds and emits the ordered start/answer/submit stream, one
// state machine per (assessment, user) attempt key.
type Sequencer struct {
	attempts AttemptRepository
	sink     EventSink
	logger   *zap.Logger
}

func NewSequencer(attempts AttemptRepository, sink EventSink, logger *zap.Logger) *Sequencer {
	return &Sequencer{attempts: attempts, sink: sink, logger: logger}
}

// Start opens an attempt. Starting an already open attempt fails with
// ErrDuplicateStart. A submitted key may start again: the attempt reopens
// and the sequence counter keeps climbing so numbers are never reused.
func (s *Sequencer) Start(ctx context.Context, assessmentID, userID string) (domain.QuizEvent, error) {
	attempt := s.attempts.GetOrCreate(assessmentID, userID)
	attempt.mu.Lock()
	defer attempt.mu.Unlock()

	if attempt.state == AttemptStarted || attempt.state == AttemptInProgress {
		return domain.QuizEvent{}, domain.ErrDuplicateStart
	}
	attempt.state = AttemptStarted
	attempt.startedAt = attempt.now()

	event := attempt.nextEventLocked(domain.EventStart, "")
	s.deliver(ctx, event)
	return event, nil
}

// Answer records per-question progress. Allowed any number of times while
// the attempt is open.
func (s *Sequencer) Answer(ctx context.Context, assessmentID, userID, questionID string) (domain.QuizEvent, error) {
	attempt, ok := s.attempts.Get(assessmentID, userID)
	if !ok {
		return domain.QuizEvent{}, domain.ErrNotStarted
	}
	attempt.mu.Lock()
	defer attempt.mu.Unlock()

	switch attempt.state {
	case AttemptNotStarted:
		return domain.QuizEvent{}, domain.ErrNotStarted
	case AttemptSubmitted:
		return domain.QuizEvent{}, domain.ErrAlreadySubmitted
	}
	attempt.state = AttemptInProgress

	event := attempt.nextEventLocked(domain.EventAnswer, questionID)
	s.deliver(ctx, event)
	return event, nil
}

// Submit closes the attempt. At most one Submit succeeds per open attempt;
// the transition is the exclusivity point callers rely on. The returned
// start time lets callers compute the authoritative elapsed duration.
func (s *Sequencer) Submit(ctx context.Context, assessmentID, userID string) (domain.QuizEvent, time.Time, error) {
	attempt, ok := s.attempts.Get(assessmentID, userID)
	if !ok {
		return domain.QuizEvent{}, time.Time{}, domain.ErrNotStarted
	}
	attempt.mu.Lock()
	defer attempt.mu.Unlock()

	switch attempt.state {
	case AttemptNotStarted:
		return domain.QuizEvent{}, time.Time{}, domain.ErrNotStarted
	case AttemptSubmitted:
		return domain.QuizEvent{}, time.Time{}, domain.ErrAlreadySubmitted
	}
	attempt.state = AttemptSubmitted

	event := attempt.nextEventLocked(domain.EventSubmit, "")
	s.deliver(ctx, event)
	return event, attempt.startedAt, nil
}

// State reports the attempt key's current state without transitioning it.
func (s *Sequencer) State(assessmentID, userID string) AttemptState {
	attempt, ok := s.attempts.Get(assessmentID, userID)
	if !ok {
		return AttemptNotStarted
	}
	return attempt.State()
}

// deliver hands the event to the sink while still holding the attempt lock,
// which keeps per-key emission order aligned with sequence numbers.
func (s *Sequencer) deliver(ctx context.Context, event domain.QuizEvent) {
	if err := s.sink.Publish(ctx, event); err != nil {
		s.logger.Warn("event delivery failed",
			zap.String("assessmentId", event.AssessmentID),
			zap.String("userId", event.UserID),
			zap.Uint64("seq", event.Seq),
			zap.Error(err))
	}
}
