package domain

import "errors"

// Validation errors: caller-correctable input problems. Wrapped values
// carry the offending question or answer identifier.
var (
	// ErrMalformedQuestionSet is returned when a serialized question set fails to parse or validate.
	ErrMalformedQuestionSet = errors.New("malformed question set")
	// ErrMalformedAnswers is returned when submitted answers do not match the question set's shape.
	ErrMalformedAnswers = errors.New("malformed answers")
	// ErrSubmissionExpired is returned when a submission arrives past the time limit plus grace.
	ErrSubmissionExpired = errors.New("submission expired")
)

// State-conflict errors: the caller violated the attempt protocol. Reported
// distinctly from validation errors so clients can say "already submitted"
// instead of "bad input".
var (
	// ErrDuplicateStart is returned when Start is called twice for an open attempt.
	ErrDuplicateStart = errors.New("attempt already started")
	// ErrAlreadySubmitted is returned once an attempt reached its terminal state.
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	// ErrNotStarted is returned when Answer or Submit arrive without a prior Start.
	ErrNotStarted = errors.New("attempt not started")
)

var (
	// ErrNotEnrolled is returned when the user is not a member of the assessment's course.
	ErrNotEnrolled = errors.New("user not enrolled in course")
	// ErrAssessmentNotFound indicates the assessment record could not be loaded.
	ErrAssessmentNotFound = errors.New("assessment not found")
)
