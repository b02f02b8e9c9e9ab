package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"campus-assessment-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// EventSink publishes QuizEvents to a per-assessment pub/sub channel so
// out-of-process monitors can follow attempts live. Delivery is
// fire-and-forget; the sequencer logs and swallows failures.
type EventSink struct {
	client *redis.Client
}

func NewEventSink(client *redis.Client) *EventSink {
	return &EventSink{client: client}
}

func (s *EventSink) Publish(ctx context.Context, event domain.QuizEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.client.Publish(ctx, ChannelFor(event.AssessmentID), payload).Err()
}

// ChannelFor names the pub/sub channel carrying one assessment's events.
func ChannelFor(assessmentID string) string {
	return "assessment:events:" + assessmentID
}
