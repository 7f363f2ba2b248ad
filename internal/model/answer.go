package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamAnswer is one saved selection, keyed uniquely by (attempt, question).
// A later save for the same pair overwrites, never duplicates. IsCorrect is
// derived server-side from the question's correct_option at save time; the
// client never supplies it.
type ExamAnswer struct {
	AttemptID        uuid.UUID `json:"attempt_id"`
	QuestionID       uuid.UUID `json:"question_id"`
	SelectedOption   string    `json:"selected_option"`
	IsCorrect        bool      `json:"is_correct"`
	TimeTakenSeconds int       `json:"time_taken_seconds"`
	AnsweredAt       time.Time `json:"answered_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
