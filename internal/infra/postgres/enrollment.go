package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Enrollment answers course-membership checks from the enrollments table.
type Enrollment struct {
	pool *pgxpool.Pool
}

func NewEnrollment(pool *pgxpool.Pool) *Enrollment {
	return &Enrollment{pool: pool}
}

func (e *Enrollment) IsEnrolled(ctx context.Context, courseID, userID string) (bool, error) {
	var enrolled bool
	err := e.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE course_id=$1 AND user_id=$2)`,
		courseID, userID,
	).Scan(&enrolled)
	if err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return enrolled, nil
}
