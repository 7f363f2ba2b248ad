package service

import (
	"testing"

	"github.com/rajisurvase/village-orbit-api/internal/model"
)

func answerSet(correct, wrong int) []model.ExamAnswer {
	answers := make([]model.ExamAnswer, 0, correct+wrong)
	for i := 0; i < correct; i++ {
		answers = append(answers, model.ExamAnswer{IsCorrect: true})
	}
	for i := 0; i < wrong; i++ {
		answers = append(answers, model.ExamAnswer{IsCorrect: false})
	}
	return answers
}

func TestScoreAttempt(t *testing.T) {
	cases := []struct {
		name           string
		total          int
		passMarks      int
		correct, wrong int
		wantScore      int
		wantUnanswered int
		wantPassed     bool
	}{
		{"all correct", 10, 40, 10, 0, 100, 0, true},
		{"all wrong", 10, 40, 0, 10, 0, 0, false},
		{"no answers at all", 10, 40, 0, 0, 0, 10, false},
		{"unanswered count against score", 10, 40, 3, 2, 30, 5, false},
		{"rounding up", 3, 40, 2, 1, 67, 0, true},
		{"rounding half", 8, 40, 3, 5, 38, 0, false},
		{"pass boundary exact", 10, 40, 4, 6, 40, 0, true},
		{"one below pass", 10, 40, 3, 7, 30, 0, false},
		{"zero questions", 0, 40, 0, 0, 0, 0, false},
		{"zero pass marks always passes", 5, 0, 0, 5, 0, 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ScoreAttempt(tc.total, tc.passMarks, answerSet(tc.correct, tc.wrong))
			if res.Score != tc.wantScore {
				t.Errorf("Score = %d, want %d", res.Score, tc.wantScore)
			}
			if res.CorrectAnswers != tc.correct {
				t.Errorf("CorrectAnswers = %d, want %d", res.CorrectAnswers, tc.correct)
			}
			if res.WrongAnswers != tc.wrong {
				t.Errorf("WrongAnswers = %d, want %d", res.WrongAnswers, tc.wrong)
			}
			if res.Unanswered != tc.wantUnanswered {
				t.Errorf("Unanswered = %d, want %d", res.Unanswered, tc.wantUnanswered)
			}
			if res.Passed != tc.wantPassed {
				t.Errorf("Passed = %v, want %v", res.Passed, tc.wantPassed)
			}
		})
	}
}

func TestScoreAttemptDeterministic(t *testing.T) {
	answers := answerSet(7, 2)
	first := ScoreAttempt(12, 50, answers)
	for i := 0; i < 5; i++ {
		if got := ScoreAttempt(12, 50, answers); got != first {
			t.Fatalf("run %d produced %+v, first run produced %+v", i, got, first)
		}
	}
}
