package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"campus-assessment-service/internal/domain"
)

func TestAssessmentRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		AssessmentLoader: NewStaticAssessmentLoader(map[string]domain.Assessment{
			"a1": sampleAssessment(),
		}),
	}
	repo := NewAssessmentRepository(loader, time.Minute)

	if _, err := repo.GetAssessment(context.Background(), "a1"); err != nil {
		t.Fatalf("get assessment: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetAssessment(context.Background(), "a1"); err != nil {
		t.Fatalf("get assessment 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestAssessmentRepositoryMissesPropagate(t *testing.T) {
	repo := NewAssessmentRepository(NewStaticAssessmentLoader(nil), time.Minute)
	if _, err := repo.GetAssessment(context.Background(), "missing"); err != domain.ErrAssessmentNotFound {
		t.Fatalf("expected ErrAssessmentNotFound, got %v", err)
	}
}

type countingLoader struct {
	AssessmentLoader
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
