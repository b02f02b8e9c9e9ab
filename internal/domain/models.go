package domain

import (
	"encoding/json"
	"time"
)

// QuestionType tags how a question is answered and scored.
type QuestionType string

const (
	SingleChoice QuestionType = "single_choice"
	MultiChoice  QuestionType = "multi_choice"
	FreeText     QuestionType = "free_text"
)

// Option is a selectable answer for a choice question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is one entry of an assessment's question set. Questions are
// value data owned by their assessment, never addressed on their own.
type Question struct {
	ID      string       `json:"id"`
	Type    QuestionType `json:"type"`
	Prompt  string       `json:"prompt"`
	Options []Option     `json:"options,omitempty"`
	Correct []string     `json:"correct,omitempty"` // option IDs; empty for free text
	Points  int          `json:"points"`
}

// Assessment holds the serialized question set for one course. Questions
// stays an opaque blob everywhere except the question-set codec.
type Assessment struct {
	ID        string          `json:"id"`
	CourseID  string          `json:"courseId"`
	Title     string          `json:"title"`
	Questions json.RawMessage `json:"questions"`
	MaxScore  int             `json:"maxScore"`
	TimeLimit time.Duration   `json:"timeLimit"` // zero means no limit
}

// Answer is a student's response to a single question. Exactly one of the
// payload fields is populated, matching the question type.
type Answer struct {
	QuestionID string   `json:"questionId"`
	OptionID   string   `json:"optionId,omitempty"`  // single choice
	OptionIDs  []string `json:"optionIds,omitempty"` // multi choice
	Text       string   `json:"text,omitempty"`      // free text
}

// Submission is the transient input to the submit flow. Answers is opaque
// until the answer codec validates it against the question set.
type Submission struct {
	AssessmentID string
	UserID       string
	Answers      json.RawMessage
	TimeTaken    time.Duration // client-reported; the sequencer's clock wins
}

// Result is the immutable record of one scored attempt. A new Result is
// written per submission; prior Results are never merged or overwritten.
type Result struct {
	ID           string          `json:"id"`
	AssessmentID string          `json:"assessmentId"`
	CourseID     string          `json:"courseId"`
	UserID       string          `json:"userId"`
	Score        int             `json:"score"`
	Answers      json.RawMessage `json:"answers"`
	SubmittedAt  time.Time       `json:"submittedAt"`
	TimeTaken    time.Duration   `json:"timeTaken"`
}

// QuestionScore is the per-question detail produced alongside the total.
type QuestionScore struct {
	QuestionID string `json:"questionId"`
	Awarded    int    `json:"awarded"`
	Possible   int    `json:"possible"`
	Pending    bool   `json:"pending"` // free text awaits manual grading
}

// EventType distinguishes the three telemetry events of an attempt.
type EventType string

const (
	EventStart  EventType = "start"
	EventAnswer EventType = "answer"
	EventSubmit EventType = "submit"
)

// QuizEvent is one element of the ordered start/answer/submit stream for an
// attempt. Seq is strictly increasing and gap-free per (assessment, user).
type QuizEvent struct {
	Type         EventType `json:"type"`
	AssessmentID string    `json:"assessmentId"`
	UserID       string    `json:"userId"`
	QuestionID   string    `json:"questionId,omitempty"` // answer events only
	Seq          uint64    `json:"seq"`
	At           time.Time `json:"at"`
}

// ScoreBucket is one slice of a summary's score distribution.
type ScoreBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// AssessmentSummary aggregates all persisted Results for one assessment.
type AssessmentSummary struct {
	AssessmentID string        `json:"assessmentId"`
	AttemptCount int           `json:"attemptCount"`
	MeanScore    float64       `json:"meanScore"`
	MedianScore  float64       `json:"medianScore"`
	Distribution []ScoreBucket `json:"scoreDistribution"`
}
