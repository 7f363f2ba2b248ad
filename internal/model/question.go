package model

import (
	"github.com/google/uuid"
)

// Question represents a single four-option exam question.
// Questions are immutable for the lifetime of any attempt referencing them.
type Question struct {
	ID            uuid.UUID `json:"id"`
	ExamID        uuid.UUID `json:"exam_id"`
	QuestionText  string    `json:"question_text"`
	OptionA       string    `json:"option_a"`
	OptionB       string    `json:"option_b"`
	OptionC       string    `json:"option_c"`
	OptionD       string    `json:"option_d"`
	CorrectOption string    `json:"correct_option"`
	Explanation   *string   `json:"explanation,omitempty"`
	OrderNum      int       `json:"order_num"`
}

// QuestionForStudent is a question without the correct answer or explanation,
// as served to a student during an attempt.
type QuestionForStudent struct {
	ID           uuid.UUID `json:"id"`
	QuestionText string    `json:"question_text"`
	OptionA      string    `json:"option_a"`
	OptionB      string    `json:"option_b"`
	OptionC      string    `json:"option_c"`
	OptionD      string    `json:"option_d"`
}

// ForStudent strips grading fields from a question.
func (q *Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		OptionA:      q.OptionA,
		OptionB:      q.OptionB,
		OptionC:      q.OptionC,
		OptionD:      q.OptionD,
	}
}

// AddQuestionRequest is the payload for adding a question to an exam.
type AddQuestionRequest struct {
	QuestionText  string  `json:"question_text" binding:"required,min=1,max=2000"`
	OptionA       string  `json:"option_a" binding:"required,max=1000"`
	OptionB       string  `json:"option_b" binding:"required,max=1000"`
	OptionC       string  `json:"option_c" binding:"required,max=1000"`
	OptionD       string  `json:"option_d" binding:"required,max=1000"`
	CorrectOption string  `json:"correct_option" binding:"required,oneof=A B C D"`
	Explanation   *string `json:"explanation" binding:"omitempty,max=2000"`
	OrderNum      int     `json:"order_num" binding:"min=0"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing questions.
type ReplaceQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}
