package memory

import (
	"context"
	"testing"
	"time"

	"campus-assessment-service/internal/domain"
)

func TestResultStoreQueries(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore()

	seed := []domain.Result{
		{ID: "r1", AssessmentID: "a1", CourseID: "c1", UserID: "u1", Score: 8, SubmittedAt: time.Now()},
		{ID: "r2", AssessmentID: "a1", CourseID: "c1", UserID: "u2", Score: 5, SubmittedAt: time.Now()},
		{ID: "r3", AssessmentID: "a2", CourseID: "c2", UserID: "u1", Score: 3, SubmittedAt: time.Now()},
	}
	for _, r := range seed {
		if err := store.Create(ctx, r); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	byAssessment, err := store.ByAssessment(ctx, "a1")
	if err != nil {
		t.Fatalf("by assessment: %v", err)
	}
	if len(byAssessment) != 2 {
		t.Fatalf("expected 2 results for a1, got %d", len(byAssessment))
	}

	byUser, err := store.ByUser(ctx, "u1", "")
	if err != nil {
		t.Fatalf("by user: %v", err)
	}
	if len(byUser) != 2 {
		t.Fatalf("expected 2 results for u1, got %d", len(byUser))
	}

	scoped, err := store.ByUser(ctx, "u1", "c2")
	if err != nil {
		t.Fatalf("by user scoped: %v", err)
	}
	if len(scoped) != 1 || scoped[0].ID != "r3" {
		t.Fatalf("expected only r3 for u1 in c2, got %+v", scoped)
	}

	byCourse, err := store.ByCourse(ctx, "c1")
	if err != nil {
		t.Fatalf("by course: %v", err)
	}
	if len(byCourse) != 2 {
		t.Fatalf("expected 2 results for c1, got %d", len(byCourse))
	}
}
