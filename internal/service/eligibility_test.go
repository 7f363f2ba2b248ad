package service

import (
	"testing"
	"time"

	"github.com/rajisurvase/village-orbit-api/internal/model"
)

func strPtr(s string) *string { return &s }

func TestEligibleByStandard(t *testing.T) {
	unrestricted := &model.Exam{}
	restricted := &model.Exam{FromStandard: strPtr("5th"), ToStandard: strPtr("8th")}
	fromOnly := &model.Exam{FromStandard: strPtr("9")}

	cases := []struct {
		name     string
		exam     *model.Exam
		standard *string
		want     bool
	}{
		{"unrestricted admits anyone", unrestricted, nil, true},
		{"inside range", restricted, strPtr("6th"), true},
		{"lower bound inclusive", restricted, strPtr("5"), true},
		{"upper bound inclusive", restricted, strPtr("8th"), true},
		{"below range", restricted, strPtr("4th"), false},
		{"above range", restricted, strPtr("9th"), false},
		{"missing standard fails closed", restricted, nil, false},
		{"unparseable standard fails closed", restricted, strPtr("senior"), false},
		{"devanagari suffix parses", restricted, strPtr("7 वी"), true},
		{"open upper bound", fromOnly, strPtr("12th"), true},
		{"open upper bound below from", fromOnly, strPtr("8th"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EligibleByStandard(tc.exam, tc.standard); got != tc.want {
				t.Errorf("EligibleByStandard() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestWithinWindow(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	open := &model.Exam{}
	if !WithinWindow(open, now) {
		t.Error("exam without bounds should always be within window")
	}

	upcoming := &model.Exam{ScheduledAt: &after}
	if WithinWindow(upcoming, now) {
		t.Error("exam scheduled in the future should not be within window")
	}

	ended := &model.Exam{EndsAt: &before}
	if WithinWindow(ended, now) {
		t.Error("exam past its end should not be within window")
	}

	live := &model.Exam{ScheduledAt: &before, EndsAt: &after}
	if !WithinWindow(live, now) {
		t.Error("exam inside its window should be within window")
	}
}

func TestCanStartBlockedBySubmittedAttempt(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	end := now.Add(time.Hour)
	exam := &model.Exam{Status: model.ExamStatusActive, EndsAt: &end}

	submitted := []model.ExamAttempt{{Status: model.AttemptStatusSubmitted}}
	if CanStart(exam, now, nil, submitted) {
		t.Error("submitted attempt without reattempt permission must block the exam")
	}

	// The window being open does not override the block.
	if CanStart(exam, now.Add(-time.Minute), nil, submitted) {
		t.Error("open window must not override the submitted-attempt block")
	}

	forgiven := []model.ExamAttempt{{Status: model.AttemptStatusSubmitted, CanReattempt: true}}
	if !CanStart(exam, now, nil, forgiven) {
		t.Error("admin reset should permit a fresh attempt")
	}

	examReattempt := &model.Exam{Status: model.ExamStatusActive, EndsAt: &end, AllowReattemptTillEnd: true}
	if !CanStart(examReattempt, now, nil, submitted) {
		t.Error("allow_reattempt_till_end_date should permit a fresh attempt")
	}
}

func TestCanStartExamStatus(t *testing.T) {
	now := time.Now()
	for _, status := range []model.ExamStatus{model.ExamStatusDraft, model.ExamStatusCompleted, model.ExamStatusCancelled} {
		exam := &model.Exam{Status: status}
		if CanStart(exam, now, nil, nil) {
			t.Errorf("exam in %s status should not be startable", status)
		}
	}
	exam := &model.Exam{Status: model.ExamStatusActive}
	if !CanStart(exam, now, nil, nil) {
		t.Error("active exam without bounds should be startable")
	}
}

func TestClassifyPriority(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	past := now.Add(-2 * time.Hour)
	future := now.Add(2 * time.Hour)

	score := 80
	completed := model.ExamAttempt{Status: model.AttemptStatusSubmitted, Score: &score}
	active := model.ExamAttempt{Status: model.AttemptStatusInProgress}

	exam := &model.Exam{ScheduledAt: &past, EndsAt: &future}

	// Completed wins over a stale active row sitting next to it.
	got := Classify(exam, now, []model.ExamAttempt{active, completed})
	if got != ExamCardCompleted {
		t.Errorf("completed+active = %s, want %s", got, ExamCardCompleted)
	}

	if got := Classify(exam, now, []model.ExamAttempt{active}); got != ExamCardResume {
		t.Errorf("active attempt = %s, want %s", got, ExamCardResume)
	}

	// Resume wins over schedule states.
	upcoming := &model.Exam{ScheduledAt: &future}
	if got := Classify(upcoming, now, []model.ExamAttempt{active}); got != ExamCardResume {
		t.Errorf("active attempt on upcoming exam = %s, want %s", got, ExamCardResume)
	}

	if got := Classify(upcoming, now, nil); got != ExamCardUpcoming {
		t.Errorf("future exam = %s, want %s", got, ExamCardUpcoming)
	}

	ended := &model.Exam{EndsAt: &past}
	if got := Classify(ended, now, nil); got != ExamCardEnded {
		t.Errorf("past exam = %s, want %s", got, ExamCardEnded)
	}

	if got := Classify(exam, now, nil); got != ExamCardActive {
		t.Errorf("live exam = %s, want %s", got, ExamCardActive)
	}
}
