package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-assessment-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AssessmentLoader loads assessment records from Postgres. The question set
// column is jsonb but travels as an opaque blob; only the question-set
// codec ever parses it.
type AssessmentLoader struct {
	pool *pgxpool.Pool
}

func NewAssessmentLoader(pool *pgxpool.Pool) *AssessmentLoader {
	return &AssessmentLoader{pool: pool}
}

func (l *AssessmentLoader) LoadAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error) {
	var (
		assessment   domain.Assessment
		timeLimitSec int64
	)
	err := l.pool.QueryRow(ctx,
		`SELECT id, course_id, title, questions, max_score, time_limit_sec FROM assessments WHERE id=$1`,
		assessmentID,
	).Scan(&assessment.ID, &assessment.CourseID, &assessment.Title, &assessment.Questions, &assessment.MaxScore, &timeLimitSec)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Assessment{}, domain.ErrAssessmentNotFound
	}
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("load assessment: %w", err)
	}
	assessment.TimeLimit = time.Duration(timeLimitSec) * time.Second
	return assessment, nil
}
