package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"campus-assessment-service/internal/domain"
	"campus-assessment-service/internal/infra/memory"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestAssessmentRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		AssessmentLoader: memory.NewStaticAssessmentLoader(map[string]domain.Assessment{
			"a1": sampleAssessment(),
		}),
	}
	repo := NewAssessmentRepository(client, loader, time.Minute)

	got, err := repo.GetAssessment(context.Background(), "a1")
	if err != nil {
		t.Fatalf("get assessment: %v", err)
	}
	if got.ID != "a1" || got.CourseID != "c1" {
		t.Fatalf("unexpected assessment %+v", got)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("assessment:a1") {
		t.Fatalf("expected cached redis key")
	}

	// Second call should hit cache, loader not incremented.
	_, _ = repo.GetAssessment(context.Background(), "a1")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

func TestAssessmentRepositoryMissPropagates(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewAssessmentRepository(newClient(mr), memory.NewStaticAssessmentLoader(nil), time.Minute)
	if _, err := repo.GetAssessment(context.Background(), "missing"); err != domain.ErrAssessmentNotFound {
		t.Fatalf("expected ErrAssessmentNotFound, got %v", err)
	}
}

type countingLoader struct {
	memory.AssessmentLoader
	calls int
}

func (l *countingLoader) LoadAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error) {
	l.calls++
	return l.AssessmentLoader.LoadAssessment(ctx, assessmentID)
}

func sampleAssessment() domain.Assessment {
	questions, _ := json.Marshal([]domain.Question{
		{
			ID:   "q1",
			Type: domain.SingleChoice,
			Options: []domain.Option{
				{ID: "o1", Text: "3"},
				{ID: "o2", Text: "4"},
			},
			Correct: []string{"o2"},
			Points:  10,
		},
	})
	return domain.Assessment{
		ID:        "a1",
		CourseID:  "c1",
		Title:     "Arithmetic check",
		Questions: questions,
		MaxScore:  10,
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
