package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "draft"
	ExamStatusScheduled ExamStatus = "scheduled"
	ExamStatusActive    ExamStatus = "active"
	ExamStatusCompleted ExamStatus = "completed"
	ExamStatusCancelled ExamStatus = "cancelled"
)

// Exam represents an exam entity. It is read-only from the exam-taking side;
// only admin handlers mutate it.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Subject         string     `json:"subject"`
	TotalQuestions  int        `json:"total_questions"`
	DurationMinutes int        `json:"duration_minutes"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	Status          ExamStatus `json:"status"`
	// FromStandard/ToStandard bound the eligible school standards, e.g.
	// "5th".."8th". Nil on either side means unbounded on that side.
	FromStandard             *string   `json:"from_standard,omitempty"`
	ToStandard               *string   `json:"to_standard,omitempty"`
	ShuffleQuestions         bool      `json:"shuffle_questions"`
	AllowReattemptTillEnd    bool      `json:"allow_reattempt_till_end_date"`
	PassMarks                int       `json:"pass_marks"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title                 string     `json:"title" binding:"required,min=3,max=255"`
	Subject               string     `json:"subject" binding:"required,min=2,max=100"`
	TotalQuestions        int        `json:"total_questions" binding:"required,min=1,max=200"`
	DurationMinutes       int        `json:"duration_minutes" binding:"required,min=1,max=480"`
	ScheduledAt           *time.Time `json:"scheduled_at" binding:"omitempty"`
	EndsAt                *time.Time `json:"ends_at" binding:"omitempty,gtfield=ScheduledAt"`
	FromStandard          *string    `json:"from_standard" binding:"omitempty,max=10"`
	ToStandard            *string    `json:"to_standard" binding:"omitempty,max=10"`
	ShuffleQuestions      bool       `json:"shuffle_questions"`
	AllowReattemptTillEnd bool       `json:"allow_reattempt_till_end_date"`
	PassMarks             int        `json:"pass_marks" binding:"min=0,max=100"`
}

// UpdateExamRequest is the payload for updating an existing exam.
type UpdateExamRequest struct {
	Title                 string     `json:"title" binding:"omitempty,min=3,max=255"`
	Subject               string     `json:"subject" binding:"omitempty,min=2,max=100"`
	TotalQuestions        *int       `json:"total_questions" binding:"omitempty,min=1,max=200"`
	DurationMinutes       *int       `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	ScheduledAt           *time.Time `json:"scheduled_at" binding:"omitempty"`
	EndsAt                *time.Time `json:"ends_at" binding:"omitempty"`
	FromStandard          *string    `json:"from_standard" binding:"omitempty,max=10"`
	ToStandard            *string    `json:"to_standard" binding:"omitempty,max=10"`
	ShuffleQuestions      *bool      `json:"shuffle_questions" binding:"omitempty"`
	AllowReattemptTillEnd *bool      `json:"allow_reattempt_till_end_date" binding:"omitempty"`
	PassMarks             *int       `json:"pass_marks" binding:"omitempty,min=0,max=100"`
}

// UpdateExamStatusRequest changes an exam's lifecycle status.
type UpdateExamStatusRequest struct {
	Status ExamStatus `json:"status" binding:"required,oneof=draft scheduled active completed cancelled"`
}
