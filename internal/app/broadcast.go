package app

import (
	"context"
	"errors"
	"sync"

	"campus-assessment-service/internal/domain"
)

// Broadcaster fans QuizEvents out to in-process subscribers, keyed by
// assessment. It implements EventSink so it can sit behind the sequencer
// next to out-of-process sinks.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.QuizEvent]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]map[chan domain.QuizEvent]struct{}),
	}
}

// Publish delivers the event to every subscriber of its assessment.
// Slow consumers lose their oldest buffered event rather than blocking the
// producer; monitoring is best-effort.
func (b *Broadcaster) Publish(_ context.Context, event domain.QuizEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subscribers[event.AssessmentID] {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
	return nil
}

// Subscribe returns a channel receiving events for one assessment.
// The caller must invoke the returned cancel function to avoid leaks.
func (b *Broadcaster) Subscribe(assessmentID string) (<-chan domain.QuizEvent, func()) {
	ch := make(chan domain.QuizEvent, 16)

	b.mu.Lock()
	subs, ok := b.subscribers[assessmentID]
	if !ok {
		subs = make(map[chan domain.QuizEvent]struct{})
		b.subscribers[assessmentID] = subs
	}
	subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if subs, ok := b.subscribers[assessmentID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(b.subscribers, assessmentID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// MultiSink publishes to every configured sink and reports their combined
// failures; callers treat any failure as best-effort.
type MultiSink []EventSink

func (m MultiSink) Publish(ctx context.Context, event domain.QuizEvent) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
