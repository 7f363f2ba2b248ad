package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/rajisurvase/village-orbit-api/internal/model"
)

// Default standard bounds applied when an exam restricts only one side.
const (
	minStandard = 0
	maxStandard = 12
)

// ExamCardStatus classifies an exam for the student's portal list.
type ExamCardStatus string

const (
	ExamCardUpcoming  ExamCardStatus = "upcoming"
	ExamCardActive    ExamCardStatus = "active"
	ExamCardEnded     ExamCardStatus = "ended"
	ExamCardResume    ExamCardStatus = "resume"
	ExamCardCompleted ExamCardStatus = "completed"
)

// parseStandard extracts the numeric part of a school standard string such
// as "5th", "10", or "8 वी". Returns false when no leading number exists.
func parseStandard(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// EligibleByStandard reports whether a student's standard falls within the
// exam's [from_standard, to_standard] range. Exams without a restriction
// admit everyone. A restricted exam fails closed: a missing or unparseable
// student standard is ineligible.
func EligibleByStandard(exam *model.Exam, studentStandard *string) bool {
	if exam.FromStandard == nil && exam.ToStandard == nil {
		return true
	}

	if studentStandard == nil {
		return false
	}
	std, ok := parseStandard(*studentStandard)
	if !ok {
		return false
	}

	from := minStandard
	if exam.FromStandard != nil {
		if n, ok := parseStandard(*exam.FromStandard); ok {
			from = n
		}
	}
	to := maxStandard
	if exam.ToStandard != nil {
		if n, ok := parseStandard(*exam.ToStandard); ok {
			to = n
		}
	}

	return std >= from && std <= to
}

// WithinWindow reports whether now falls inside the exam's scheduled window.
// A nil bound leaves that side of the window open.
func WithinWindow(exam *model.Exam, now time.Time) bool {
	if exam.ScheduledAt != nil && now.Before(*exam.ScheduledAt) {
		return false
	}
	if exam.EndsAt != nil && now.After(*exam.EndsAt) {
		return false
	}
	return true
}

// reattemptPermitted reports whether a submitted attempt may be followed by
// a fresh one.
func reattemptPermitted(exam *model.Exam, attempt *model.ExamAttempt) bool {
	return exam.AllowReattemptTillEnd || attempt.CanReattempt
}

// CanStart reports whether a student may start (or restart) an exam right
// now. A prior SUBMITTED attempt without reattempt permission blocks the
// exam regardless of the time window.
func CanStart(exam *model.Exam, now time.Time, studentStandard *string, prior []model.ExamAttempt) bool {
	for i := range prior {
		if prior[i].Status == model.AttemptStatusSubmitted && !reattemptPermitted(exam, &prior[i]) {
			return false
		}
	}

	if !WithinWindow(exam, now) {
		return false
	}
	if exam.Status != model.ExamStatusScheduled && exam.Status != model.ExamStatusActive {
		return false
	}
	return EligibleByStandard(exam, studentStandard)
}

// Classify determines how an exam is presented on the student's list.
// The priority order matters: a completed attempt must never be shown as
// resumable even if a stale active row exists alongside it, so completed
// is checked before resume, and both before any schedule-based state.
func Classify(exam *model.Exam, now time.Time, prior []model.ExamAttempt) ExamCardStatus {
	for i := range prior {
		a := &prior[i]
		if a.Status == model.AttemptStatusSubmitted || a.Score != nil {
			return ExamCardCompleted
		}
	}
	for i := range prior {
		if prior[i].Status.IsActive() {
			return ExamCardResume
		}
	}

	if exam.ScheduledAt != nil && now.Before(*exam.ScheduledAt) {
		return ExamCardUpcoming
	}
	if exam.EndsAt != nil && now.After(*exam.EndsAt) {
		return ExamCardEnded
	}
	return ExamCardActive
}
