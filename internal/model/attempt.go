package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates exam attempt states. Transitions are monotonic:
// NOT_STARTED → IN_PROGRESS → SUBMITTED. There is no backward transition;
// an admin reset permits a fresh attempt row instead of rewinding this one.
type AttemptStatus string

const (
	AttemptStatusNotStarted AttemptStatus = "NOT_STARTED"
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusSubmitted  AttemptStatus = "SUBMITTED"
)

// IsActive reports whether the attempt still occupies the single active slot
// for its (exam, student) pair.
func (s AttemptStatus) IsActive() bool {
	return s == AttemptStatusNotStarted || s == AttemptStatusInProgress
}

// ExamAttempt is one student's instance of taking a specific exam.
type ExamAttempt struct {
	ID             uuid.UUID     `json:"id"`
	ExamID         uuid.UUID     `json:"exam_id"`
	StudentID      int           `json:"student_id"`
	StudentName    string        `json:"student_name"`
	TotalQuestions int           `json:"total_questions"`
	Status         AttemptStatus `json:"status"`

	// RemainingSeconds is the authoritative countdown value as of
	// TimeCheckpointAt. The live remaining time is derived from the pair,
	// never from the exam's nominal duration.
	RemainingSeconds int       `json:"remaining_time_seconds"`
	TimeCheckpointAt time.Time `json:"time_checkpoint_at"`

	// QuestionOrder is the fixed, persisted sequence of question ids assigned
	// at creation. A resumed attempt sees an identical set and order.
	QuestionOrder []uuid.UUID `json:"shuffled_question_order"`

	IntegrityPledgeAccepted bool    `json:"integrity_pledge_accepted"`
	StartSnapshotURL        *string `json:"start_snapshot_url,omitempty"`
	CanReattempt            bool    `json:"can_reattempt"`

	Score          *int `json:"score,omitempty"`
	CorrectAnswers *int `json:"correct_answers,omitempty"`
	WrongAnswers   *int `json:"wrong_answers,omitempty"`
	Unanswered     *int `json:"unanswered,omitempty"`

	StartedAt      *time.Time `json:"started_at,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// AttemptResult holds the terminal scoring fields, computed exactly once at
// submission and never recomputed.
type AttemptResult struct {
	Score          int  `json:"score"`
	CorrectAnswers int  `json:"correct_answers"`
	WrongAnswers   int  `json:"wrong_answers"`
	Unanswered     int  `json:"unanswered"`
	TotalQuestions int  `json:"total_questions"`
	Passed         bool `json:"passed"`
}

// CompleteIntegrityRequest is the payload for the integrity gate's final step:
// the pledge checkbox plus the captured camera frame as a base64 data URL.
type CompleteIntegrityRequest struct {
	PledgeAccepted bool   `json:"pledge_accepted"`
	Snapshot       string `json:"snapshot" binding:"omitempty,max=8000000"`
}

// SaveAnswerRequest is the payload for recording a selected option.
type SaveAnswerRequest struct {
	QuestionID       uuid.UUID `json:"question_id" binding:"required"`
	SelectedOption   string    `json:"selected_option" binding:"required,oneof=A B C D"`
	TimeTakenSeconds int       `json:"time_taken_seconds" binding:"min=0"`
}

// CheckpointRequest persists the client's remaining-time countdown.
type CheckpointRequest struct {
	RemainingSeconds int `json:"remaining_time_seconds" binding:"min=0"`
}

// AttemptState is the hydration payload returned when an attempt is resumed:
// everything the exam screen needs to rebuild its in-memory state.
type AttemptState struct {
	Attempt          *ExamAttempt      `json:"attempt"`
	Answers          map[string]string `json:"answers"`
	RemainingSeconds int               `json:"remaining_time_seconds"`
	// CursorQuestionID is the first question in order lacking an answer,
	// nil when every question has one.
	CursorQuestionID *uuid.UUID `json:"cursor_question_id,omitempty"`
}
