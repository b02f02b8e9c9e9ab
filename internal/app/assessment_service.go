package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"campus-assessment-service/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssessmentRepository loads assessment records (from cache/backing store).
type AssessmentRepository interface {
	GetAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error)
}

// ResultStore persists immutable Results and serves the read-side queries.
type ResultStore interface {
	Create(ctx context.Context, result domain.Result) error
	ByAssessment(ctx context.Context, assessmentID string) ([]domain.Result, error)
	ByUser(ctx context.Context, userID, courseID string) ([]domain.Result, error)
	ByCourse(ctx context.Context, courseID string) ([]domain.Result, error)
}

// EnrollmentService is the external course-membership collaborator.
type EnrollmentService interface {
	IsEnrolled(ctx context.Context, courseID, userID string) (bool, error)
}

// AssessmentService contains the submission use cases: it validates
// eligibility, drives the codecs and scoring engine, persists Results,
// and assembles summary statistics on demand.
type AssessmentService struct {
	assessments AssessmentRepository
	results     ResultStore
	enrollment  EnrollmentService
	sequencer   *Sequencer
	grace       time.Duration
	logger      *zap.Logger
}

func NewAssessmentService(
	assessments AssessmentRepository,
	results ResultStore,
	enrollment EnrollmentService,
	sequencer *Sequencer,
	grace time.Duration,
	logger *zap.Logger,
) *AssessmentService {
	return &AssessmentService{
		assessments: assessments,
		results:     results,
		enrollment:  enrollment,
		sequencer:   sequencer,
		grace:       grace,
		logger:      logger,
	}
}

// StartAttempt validates eligibility and opens the attempt's event stream.
func (s *AssessmentService) StartAttempt(ctx context.Context, userID, assessmentID string) error {
	assessment, err := s.authorize(ctx, userID, assessmentID)
	if err != nil {
		return err
	}
	_, err = s.sequencer.Start(ctx, assessment.ID, userID)
	return err
}

// RecordAnswer emits per-question progress for an open attempt. The
// question must exist in the assessment's question set.
func (s *AssessmentService) RecordAnswer(ctx context.Context, userID, assessmentID, questionID string) error {
	assessment, err := s.assessments.GetAssessment(ctx, assessmentID)
	if err != nil {
		return err
	}
	questions, err := domain.ParseQuestionSet(assessment.Questions)
	if err != nil {
		return err
	}
	if !questionExists(questions, questionID) {
		return fmt.Errorf("%w: progress for unknown question %q", domain.ErrMalformedAnswers, questionID)
	}
	_, err = s.sequencer.Answer(ctx, assessmentID, userID, questionID)
	return err
}

// Submit scores a submission, persists the Result, and closes the attempt.
// The sequencer's Submit transition is the exclusivity point: for any
// attempt key at most one concurrent caller reaches the Result write.
// A submission past the time limit still records its Submit event so
// telemetry reflects the late attempt, but no Result is scored.
func (s *AssessmentService) Submit(ctx context.Context, userID string, sub domain.Submission) (domain.Result, []domain.QuestionScore, error) {
	assessment, err := s.authorize(ctx, userID, sub.AssessmentID)
	if err != nil {
		return domain.Result{}, nil, err
	}

	// Fail fast before any parsing or scoring work.
	switch s.sequencer.State(assessment.ID, userID) {
	case AttemptSubmitted:
		return domain.Result{}, nil, domain.ErrAlreadySubmitted
	case AttemptNotStarted:
		return domain.Result{}, nil, domain.ErrNotStarted
	}

	questions, err := domain.ParseQuestionSet(assessment.Questions)
	if err != nil {
		return domain.Result{}, nil, err
	}
	answers, err := domain.ParseAnswers(sub.Answers, questions)
	if err != nil {
		return domain.Result{}, nil, err
	}

	total, breakdown := Score(questions, answers, assessment.MaxScore, s.logger)

	event, startedAt, err := s.sequencer.Submit(ctx, assessment.ID, userID)
	if err != nil {
		return domain.Result{}, nil, err
	}

	elapsed := event.At.Sub(startedAt)
	if assessment.TimeLimit > 0 && elapsed > assessment.TimeLimit+s.grace {
		s.logger.Info("rejecting late submission",
			zap.String("assessmentId", assessment.ID),
			zap.String("userId", userID),
			zap.Duration("elapsed", elapsed),
			zap.Duration("timeLimit", assessment.TimeLimit))
		return domain.Result{}, nil, fmt.Errorf("%w: %s elapsed against a %s limit",
			domain.ErrSubmissionExpired, elapsed.Round(time.Second), assessment.TimeLimit)
	}

	result := domain.Result{
		ID:           uuid.New().String(),
		AssessmentID: assessment.ID,
		CourseID:     assessment.CourseID,
		UserID:       userID,
		Score:        total,
		Answers:      sub.Answers,
		SubmittedAt:  event.At,
		TimeTaken:    elapsed,
	}
	if err := s.results.Create(ctx, result); err != nil {
		return domain.Result{}, nil, err
	}
	return result, breakdown, nil
}

// GetAssessmentSummary aggregates all persisted Results for an assessment.
// It is recomputed on every call from a snapshot of the store; a submission
// racing the read may or may not be visible yet.
func (s *AssessmentService) GetAssessmentSummary(ctx context.Context, assessmentID string) (domain.AssessmentSummary, error) {
	assessment, err := s.assessments.GetAssessment(ctx, assessmentID)
	if err != nil {
		return domain.AssessmentSummary{}, err
	}

	results, err := s.results.ByAssessment(ctx, assessmentID)
	if err != nil {
		return domain.AssessmentSummary{}, err
	}
	summary := domain.AssessmentSummary{AssessmentID: assessmentID}
	if len(results) == 0 {
		return summary, nil
	}

	scores := make([]int, len(results))
	sum := 0
	for i, r := range results {
		scores[i] = r.Score
		sum += r.Score
	}
	sort.Ints(scores)

	summary.AttemptCount = len(results)
	summary.MeanScore = float64(sum) / float64(len(results))
	summary.MedianScore = median(scores)

	// Ratios use the raw sum of question points, not the configured
	// MaxScore, which only wins for display.
	denominator := 0
	if questions, err := domain.ParseQuestionSet(assessment.Questions); err == nil {
		denominator = QuestionPointSum(questions)
	}
	if denominator == 0 {
		denominator = assessment.MaxScore
	}
	summary.Distribution = distribution(scores, denominator)
	return summary, nil
}

// GetStudentResults lists a student's Results, optionally scoped to one course.
func (s *AssessmentService) GetStudentResults(ctx context.Context, userID, courseID string) ([]domain.Result, error) {
	return s.results.ByUser(ctx, userID, courseID)
}

// GetCourseResults lists every Result across a course's assessments.
func (s *AssessmentService) GetCourseResults(ctx context.Context, courseID string) ([]domain.Result, error) {
	return s.results.ByCourse(ctx, courseID)
}

// authorize loads the assessment and checks course membership. Callers at
// the boundary collapse ErrNotEnrolled and ErrAssessmentNotFound into one
// outward response so enrollment status never leaks resource existence.
func (s *AssessmentService) authorize(ctx context.Context, userID, assessmentID string) (domain.Assessment, error) {
	assessment, err := s.assessments.GetAssessment(ctx, assessmentID)
	if err != nil {
		return domain.Assessment{}, err
	}
	enrolled, err := s.enrollment.IsEnrolled(ctx, assessment.CourseID, userID)
	if err != nil {
		return domain.Assessment{}, err
	}
	if !enrolled {
		return domain.Assessment{}, domain.ErrNotEnrolled
	}
	return assessment, nil
}

func questionExists(questions []domain.Question, questionID string) bool {
	for _, q := range questions {
		if q.ID == questionID {
			return true
		}
	}
	return false
}

func median(sorted []int) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}

var bucketLabels = []string{"0-19", "20-39", "40-59", "60-79", "80-100"}

func distribution(scores []int, denominator int) []domain.ScoreBucket {
	buckets := make([]domain.ScoreBucket, len(bucketLabels))
	for i, label := range bucketLabels {
		buckets[i] = domain.ScoreBucket{Label: label}
	}
	if denominator <= 0 {
		return buckets
	}
	for _, score := range scores {
		percent := score * 100 / denominator
		idx := percent / 20
		if idx >= len(buckets) {
			idx = len(buckets) - 1
		}
		buckets[idx].Count++
	}
	return buckets
}
