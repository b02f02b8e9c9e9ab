package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"campus-assessment-service/internal/domain"

	"github.com/uptrace/bun"
)

// ResultStore persists Results in Postgres via bun. Rows are insert-only;
// the schema's RESTRICT foreign key keeps a Result from being orphaned by
// an assessment delete.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

type resultRow struct {
	bun.BaseModel `bun:"table:results,alias:r"`

	ID           string    `bun:"id,pk"`
	AssessmentID string    `bun:"assessment_id"`
	CourseID     string    `bun:"course_id"`
	UserID       string    `bun:"user_id"`
	Score        int       `bun:"score"`
	Answers      string    `bun:"answers"`
	SubmittedAt  time.Time `bun:"submitted_at"`
	TimeTakenSec int64     `bun:"time_taken_sec"`
}

func (s *ResultStore) Create(ctx context.Context, result domain.Result) error {
	row := &resultRow{
		ID:           result.ID,
		AssessmentID: result.AssessmentID,
		CourseID:     result.CourseID,
		UserID:       result.UserID,
		Score:        result.Score,
		Answers:      string(result.Answers),
		SubmittedAt:  result.SubmittedAt,
		TimeTakenSec: int64(result.TimeTaken / time.Second),
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *ResultStore) ByAssessment(ctx context.Context, assessmentID string) ([]domain.Result, error) {
	return s.query(ctx, "assessment_id = ?", assessmentID)
}

func (s *ResultStore) ByUser(ctx context.Context, userID, courseID string) ([]domain.Result, error) {
	if courseID == "" {
		return s.query(ctx, "user_id = ?", userID)
	}
	var rows []resultRow
	err := s.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Where("course_id = ?", courseID).
		Order("submitted_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select results: %w", err)
	}
	return toDomain(rows), nil
}

func (s *ResultStore) ByCourse(ctx context.Context, courseID string) ([]domain.Result, error) {
	return s.query(ctx, "course_id = ?", courseID)
}

func (s *ResultStore) query(ctx context.Context, where string, arg string) ([]domain.Result, error) {
	var rows []resultRow
	err := s.db.NewSelect().Model(&rows).
		Where(where, arg).
		Order("submitted_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select results: %w", err)
	}
	return toDomain(rows), nil
}

func toDomain(rows []resultRow) []domain.Result {
	results := make([]domain.Result, len(rows))
	for i, row := range rows {
		results[i] = domain.Result{
			ID:           row.ID,
			AssessmentID: row.AssessmentID,
			CourseID:     row.CourseID,
			UserID:       row.UserID,
			Score:        row.Score,
			Answers:      json.RawMessage(row.Answers),
			SubmittedAt:  row.SubmittedAt,
			TimeTaken:    time.Duration(row.TimeTakenSec) * time.Second,
		}
	}
	return results
}
