package service

import (
	"math"

	"github.com/rajisurvase/village-orbit-api/internal/model"
)

// ScoreAttempt computes the terminal result from the persisted answers.
// It is a pure function: given the same inputs it always produces the same
// result, which is what makes submission retries safe.
//
// The score is an integer percentage with totalQuestions as the denominator,
// so unanswered questions count against the student.
func ScoreAttempt(totalQuestions, passMarks int, answers []model.ExamAnswer) model.AttemptResult {
	correct := 0
	wrong := 0
	for i := range answers {
		if answers[i].IsCorrect {
			correct++
		} else {
			wrong++
		}
	}

	unanswered := totalQuestions - correct - wrong
	if unanswered < 0 {
		// Answers for questions outside the attempt's set should not exist;
		// clamp rather than report a negative count if they somehow do.
		unanswered = 0
	}

	score := 0
	if totalQuestions > 0 {
		score = int(math.Round(100 * float64(correct) / float64(totalQuestions)))
	}

	return model.AttemptResult{
		Score:          score,
		CorrectAnswers: correct,
		WrongAnswers:   wrong,
		Unanswered:     unanswered,
		TotalQuestions: totalQuestions,
		Passed:         score >= passMarks,
	}
}
