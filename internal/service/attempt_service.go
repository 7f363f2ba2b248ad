package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rajisurvase/village-orbit-api/internal/model"
	"github.com/rs/zerolog"
)

// Domain errors surfaced to handlers.
var (
	ErrExamNotAvailable    = errors.New("exam is not available")
	ErrNotEligible         = errors.New("student is not eligible for this exam")
	ErrExamWindowClosed    = errors.New("exam window is closed")
	ErrAlreadySubmitted    = errors.New("exam already submitted, reattempt not permitted")
	ErrAttemptForbidden    = errors.New("attempt does not belong to this student")
	ErrPledgeRequired      = errors.New("integrity pledge must be accepted")
	ErrSnapshotRequired    = errors.New("identity snapshot is required")
	ErrNotEnoughQuestions  = errors.New("exam does not have enough questions")
	ErrAttemptNotSubmitted = errors.New("attempt is not submitted yet")
)

// AttemptStore is the persistence surface the lifecycle controller drives.
// *repository.AttemptRepository satisfies it; tests substitute a fake.
type AttemptStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamAttempt, error)
	GetLatestByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamAttempt, error)
	ListByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) ([]model.ExamAttempt, error)
	ListByStudent(ctx context.Context, studentID int) ([]model.ExamAttempt, error)
	Create(ctx context.Context, a *model.ExamAttempt) error
	BeginAttempt(ctx context.Context, id uuid.UUID, snapshotURL string) (bool, error)
	MarkInProgress(ctx context.Context, id uuid.UUID) error
	Checkpoint(ctx context.Context, id uuid.UUID, remainingSeconds int) error
	FinalizeSubmission(ctx context.Context, id uuid.UUID, res model.AttemptResult) (bool, error)
}

// ExamSource provides exams and their question pools.
type ExamSource interface {
	GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	QuestionIDs(ctx context.Context, examID uuid.UUID) ([]uuid.UUID, error)
	QuestionsByIDs(ctx context.Context, examID uuid.UUID, ids []uuid.UUID) ([]model.Question, error)
}

// AnswerHub is the answer store surface the controller coordinates with
// around resume and submission.
type AnswerHub interface {
	Select(ctx context.Context, attempt *model.ExamAttempt, req *model.SaveAnswerRequest) error
	DrainPending(ctx context.Context, attemptID uuid.UUID) error
	Hydrate(ctx context.Context, attemptID uuid.UUID) (map[string]string, error)
	ListPersisted(ctx context.Context, attemptID uuid.UUID) ([]model.ExamAnswer, error)
	ClearHot(ctx context.Context, attemptID uuid.UUID)
}

// SnapshotSaver stores a captured camera frame and returns its URL.
// Injected so tests can substitute a fake camera/storage pair.
type SnapshotSaver interface {
	SaveSnapshot(dataURL string) (string, error)
}

// AttemptService is the attempt lifecycle controller. It owns every
// NOT_STARTED → IN_PROGRESS → SUBMITTED transition and orchestrates the
// integrity gate, the answer store, and the countdown around them.
type AttemptService struct {
	attempts  AttemptStore
	exams     ExamSource
	answers   AnswerHub
	snapshots SnapshotSaver
	log       zerolog.Logger
	now       func() time.Time
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	attempts AttemptStore,
	exams ExamSource,
	answers AnswerHub,
	snapshots SnapshotSaver,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		attempts:  attempts,
		exams:     exams,
		answers:   answers,
		snapshots: snapshots,
		log:       log.With().Str("component", "attempt_service").Logger(),
		now:       time.Now,
	}
}

// StudentExamCard is an exam as presented on the student's exam list.
type StudentExamCard struct {
	Exam       model.Exam         `json:"exam"`
	CardStatus ExamCardStatus     `json:"card_status"`
	Attempt    *model.ExamAttempt `json:"attempt,omitempty"`
	Eligible   bool               `json:"eligible"`
}

// ListExamsForStudent returns all visible exams classified for the student,
// with their latest attempt overlaid.
func (s *AttemptService) ListExamsForStudent(ctx context.Context, student *model.Student, exams []model.Exam) ([]StudentExamCard, error) {
	attempts, err := s.attempts.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	byExam := make(map[uuid.UUID][]model.ExamAttempt)
	for _, a := range attempts {
		byExam[a.ExamID] = append(byExam[a.ExamID], a)
	}

	now := s.now()
	cards := make([]StudentExamCard, 0, len(exams))
	for i := range exams {
		exam := exams[i]
		prior := byExam[exam.ID]

		card := StudentExamCard{
			Exam:       exam,
			CardStatus: Classify(&exam, now, prior),
			Eligible:   EligibleByStandard(&exam, student.Standard),
		}
		if len(prior) > 0 {
			card.Attempt = &prior[0]
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// StartOrResume is the lifecycle entry point. It resumes the student's
// active attempt if one exists, enforces the reattempt policy against a
// submitted one, and otherwise creates a fresh NOT_STARTED attempt with a
// newly fixed question order.
func (s *AttemptService) StartOrResume(ctx context.Context, examID uuid.UUID, student *model.Student) (*model.ExamAttempt, bool, error) {
	exam, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		return nil, false, fmt.Errorf("get exam: %w", err)
	}

	prior, err := s.attempts.ListByExamAndStudent(ctx, examID, student.ID)
	if err != nil {
		return nil, false, fmt.Errorf("list prior attempts: %w", err)
	}

	// Resume wins over everything: an active attempt is always returned
	// as-is, identical question set and order included.
	for i := range prior {
		if prior[i].Status.IsActive() {
			return &prior[i], true, nil
		}
	}

	now := s.now()
	if len(prior) > 0 && !CanStart(exam, now, student.Standard, prior) {
		// A submitted attempt without reattempt permission is the terminal
		// "already completed" outcome regardless of the window.
		if !reattemptPermitted(exam, &prior[0]) {
			return nil, false, ErrAlreadySubmitted
		}
	}
	if !CanStart(exam, now, student.Standard, prior) {
		switch {
		case !EligibleByStandard(exam, student.Standard):
			return nil, false, ErrNotEligible
		case !WithinWindow(exam, now):
			return nil, false, ErrExamWindowClosed
		default:
			return nil, false, ErrExamNotAvailable
		}
	}

	order, err := s.buildQuestionOrder(ctx, exam)
	if err != nil {
		return nil, false, err
	}

	attempt := &model.ExamAttempt{
		ExamID:           exam.ID,
		StudentID:        student.ID,
		StudentName:      student.Name,
		TotalQuestions:   exam.TotalQuestions,
		Status:           model.AttemptStatusNotStarted,
		RemainingSeconds: exam.DurationMinutes * 60,
		QuestionOrder:    order,
	}

	if err := s.attempts.Create(ctx, attempt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost a concurrent create against the one-active-attempt index;
			// the winner's row is the attempt to resume.
			existing, fetchErr := s.attempts.GetLatestByExamAndStudent(ctx, examID, student.ID)
			if fetchErr != nil {
				return nil, false, fmt.Errorf("concurrent start, fetch failed: %w", fetchErr)
			}
			return existing, true, nil
		}
		return nil, false, fmt.Errorf("create attempt: %w", err)
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Int("student_id", student.ID).
		Str("attempt_id", attempt.ID.String()).
		Msg("Attempt created")

	return attempt, false, nil
}

// buildQuestionOrder fixes the attempt's question set: the exam's pool,
// optionally shuffled, truncated to total_questions. Persisted once at
// creation and immutable thereafter.
func (s *AttemptService) buildQuestionOrder(ctx context.Context, exam *model.Exam) ([]uuid.UUID, error) {
	pool, err := s.exams.QuestionIDs(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("list question ids: %w", err)
	}
	if len(pool) < exam.TotalQuestions {
		return nil, ErrNotEnoughQuestions
	}

	order := make([]uuid.UUID, len(pool))
	copy(order, pool)
	if exam.ShuffleQuestions {
		rand.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	return order[:exam.TotalQuestions], nil
}

// getOwned loads an attempt and verifies ownership. studentID 0 is the
// system caller (expiry sweeper) and bypasses the check.
func (s *AttemptService) getOwned(ctx context.Context, attemptID uuid.UUID, studentID int) (*model.ExamAttempt, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if studentID != 0 && attempt.StudentID != studentID {
		return nil, ErrAttemptForbidden
	}
	return attempt, nil
}

// CompleteIntegrity is the integrity gate's persist step. The pledge flag,
// the identity snapshot, and the IN_PROGRESS transition land in a single
// write. An attempt whose pledge was already accepted takes the resumption
// shortcut: no re-capture, just NOT_STARTED→IN_PROGRESS if still needed.
func (s *AttemptService) CompleteIntegrity(ctx context.Context, attemptID uuid.UUID, studentID int, req *model.CompleteIntegrityRequest) (*model.ExamAttempt, error) {
	attempt, err := s.getOwned(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}
	if attempt.Status == model.AttemptStatusSubmitted {
		return nil, ErrAlreadySubmitted
	}

	if attempt.IntegrityPledgeAccepted {
		if attempt.Status == model.AttemptStatusNotStarted {
			if err := s.attempts.MarkInProgress(ctx, attemptID); err != nil {
				return nil, fmt.Errorf("mark in progress: %w", err)
			}
		}
		return s.attempts.GetByID(ctx, attemptID)
	}

	if !req.PledgeAccepted {
		return nil, ErrPledgeRequired
	}
	if req.Snapshot == "" {
		return nil, ErrSnapshotRequired
	}

	url, err := s.snapshots.SaveSnapshot(req.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	begun, err := s.attempts.BeginAttempt(ctx, attemptID, url)
	if err != nil {
		return nil, fmt.Errorf("begin attempt: %w", err)
	}
	if !begun {
		// Raced with another completion of the same gate; the attempt is
		// already IN_PROGRESS, which is the state we wanted.
		s.log.Debug().Str("attempt_id", attemptID.String()).Msg("Integrity gate already completed")
	}

	return s.attempts.GetByID(ctx, attemptID)
}

// Paper returns the attempt's questions in its fixed order, with grading
// fields withheld.
func (s *AttemptService) Paper(ctx context.Context, attemptID uuid.UUID, studentID int) ([]model.QuestionForStudent, error) {
	attempt, err := s.getOwned(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}

	questions, err := s.exams.QuestionsByIDs(ctx, attempt.ExamID, attempt.QuestionOrder)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}

	byID := make(map[uuid.UUID]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	paper := make([]model.QuestionForStudent, 0, len(attempt.QuestionOrder))
	for _, qid := range attempt.QuestionOrder {
		q, ok := byID[qid]
		if !ok {
			return nil, fmt.Errorf("question %s missing from exam payload", qid)
		}
		paper = append(paper, q.ForStudent())
	}
	return paper, nil
}

// remainingAt derives the live countdown from the persisted checkpoint.
// The clock never pauses: wall time since the checkpoint always counts.
func remainingAt(a *model.ExamAttempt, now time.Time) int {
	remaining := a.RemainingSeconds
	if a.Status == model.AttemptStatusInProgress {
		remaining -= int(now.Sub(a.TimeCheckpointAt).Seconds())
	}
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// State hydrates a resumed session: the answer map, the derived remaining
// time, and the first unanswered question as the cursor.
func (s *AttemptService) State(ctx context.Context, attemptID uuid.UUID, studentID int) (*model.AttemptState, error) {
	attempt, err := s.getOwned(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}

	answers, err := s.answers.Hydrate(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	state := &model.AttemptState{
		Attempt:          attempt,
		Answers:          answers,
		RemainingSeconds: remainingAt(attempt, s.now()),
	}

	for _, qid := range attempt.QuestionOrder {
		if _, answered := answers[qid.String()]; !answered {
			cursor := qid
			state.CursorQuestionID = &cursor
			break
		}
	}
	return state, nil
}

// SaveAnswer validates ownership and hands the selection to the answer store.
func (s *AttemptService) SaveAnswer(ctx context.Context, attemptID uuid.UUID, studentID int, req *model.SaveAnswerRequest) error {
	attempt, err := s.getOwned(ctx, attemptID, studentID)
	if err != nil {
		return err
	}
	return s.answers.Select(ctx, attempt, req)
}

// Checkpoint persists the countdown so a future resume starts from a
// durable value instead of the exam's nominal duration.
func (s *AttemptService) Checkpoint(ctx context.Context, attemptID uuid.UUID, studentID int, remainingSeconds int) error {
	attempt, err := s.getOwned(ctx, attemptID, studentID)
	if err != nil {
		return err
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return ErrAttemptNotActive
	}
	return s.attempts.Checkpoint(ctx, attemptID, remainingSeconds)
}

// Submit is the single terminal transition, shared by the user-initiated
// path and the sweeper's auto-submit (studentID 0). Pending debounced
// answers are drained first, then the score is computed from the persisted
// rows and written together with every other terminal field in one guarded
// update. A duplicate trigger finds the attempt already SUBMITTED and
// returns the stored result unchanged.
func (s *AttemptService) Submit(ctx context.Context, attemptID uuid.UUID, studentID int) (*model.ExamAttempt, error) {
	attempt, err := s.getOwned(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}

	if attempt.Status == model.AttemptStatusSubmitted {
		return attempt, nil
	}
	if attempt.Status == model.AttemptStatusNotStarted {
		return nil, ErrAttemptNotActive
	}

	if err := s.answers.DrainPending(ctx, attemptID); err != nil {
		return nil, err
	}

	answers, err := s.answers.ListPersisted(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("read answers for scoring: %w", err)
	}

	exam, err := s.exams.GetExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}

	result := ScoreAttempt(attempt.TotalQuestions, exam.PassMarks, answers)

	won, err := s.attempts.FinalizeSubmission(ctx, attemptID, result)
	if err != nil {
		return nil, fmt.Errorf("finalize submission: %w", err)
	}
	if won {
		s.answers.ClearHot(ctx, attemptID)
		s.log.Info().
			Str("attempt_id", attemptID.String()).
			Int("score", result.Score).
			Int("correct", result.CorrectAnswers).
			Int("wrong", result.WrongAnswers).
			Int("unanswered", result.Unanswered).
			Msg("Attempt submitted")
	}

	return s.attempts.GetByID(ctx, attemptID)
}

// Result returns the terminal attempt with per-question review data.
// Only available once SUBMITTED.
func (s *AttemptService) Result(ctx context.Context, attemptID uuid.UUID, studentID int) (*model.ExamAttempt, []model.ExamAnswer, error) {
	attempt, err := s.getOwned(ctx, attemptID, studentID)
	if err != nil {
		return nil, nil, err
	}
	if attempt.Status != model.AttemptStatusSubmitted {
		return nil, nil, ErrAttemptNotSubmitted
	}

	answers, err := s.answers.ListPersisted(ctx, attemptID)
	if err != nil {
		return nil, nil, err
	}
	return attempt, answers, nil
}

// SubmitExpired force-submits every attempt whose countdown has run out.
// Called by the expiry sweeper; each submission is individually idempotent.
func (s *AttemptService) SubmitExpired(ctx context.Context, ids []uuid.UUID) {
	for _, id := range ids {
		if _, err := s.Submit(ctx, id, 0); err != nil {
			s.log.Error().Err(err).Str("attempt_id", id.String()).Msg("Auto-submit failed")
		}
	}
}
