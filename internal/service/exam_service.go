package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rajisurvase/village-orbit-api/internal/config"
	"github.com/rajisurvase/village-orbit-api/internal/model"
	"github.com/rajisurvase/village-orbit-api/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const examQuestionsTTL = 6 * time.Hour

// ExamService owns exam and question management and serves the question
// pool to the attempt lifecycle through a Redis read-through cache, so a
// hall of students hammering the same paper does not fan out to Postgres.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	attemptRepo  *repository.AttemptRepository
	rdb          *redis.Client
	cacheKey     *config.CacheKeyStruct
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	attemptRepo *repository.AttemptRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		rdb:          rdb,
		cacheKey:     config.NewCacheKeyStruct(),
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// GetExam implements ExamSource.
func (s *ExamService) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// ListVisible returns the exams students may see on their list.
func (s *ExamService) ListVisible(ctx context.Context) ([]model.Exam, error) {
	return s.examRepo.ListVisible(ctx)
}

// ListPaginated returns all exams for the admin panel.
func (s *ExamService) ListPaginated(ctx context.Context, limit, offset int) ([]model.Exam, int, error) {
	return s.examRepo.ListPaginated(ctx, limit, offset)
}

// cachedQuestions returns the exam's full question pool, hitting Redis
// first and healing the cache from Postgres on a miss.
func (s *ExamService) cachedQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	key := s.cacheKey.ExamQuestionsKey(examID.String())

	raw, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		var questions []model.Question
		if jsonErr := json.Unmarshal([]byte(raw), &questions); jsonErr == nil {
			return questions, nil
		}
		// Corrupt entry, fall through to the database.
		s.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		s.log.Warn().Err(err).Msg("Question cache read failed, using database")
	}

	questions, err := s.questionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	if payload, jsonErr := json.Marshal(questions); jsonErr == nil {
		if setErr := s.rdb.Set(ctx, key, payload, examQuestionsTTL).Err(); setErr != nil {
			s.log.Warn().Err(setErr).Msg("Question cache write failed")
		}
	}
	return questions, nil
}

// QuestionIDs implements ExamSource.
func (s *ExamService) QuestionIDs(ctx context.Context, examID uuid.UUID) ([]uuid.UUID, error) {
	questions, err := s.cachedQuestions(ctx, examID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(questions))
	for i := range questions {
		ids = append(ids, questions[i].ID)
	}
	return ids, nil
}

// QuestionsByIDs implements ExamSource. The requested subset is served
// from the cached pool so the paper fetch never needs its own query.
func (s *ExamService) QuestionsByIDs(ctx context.Context, examID uuid.UUID, ids []uuid.UUID) ([]model.Question, error) {
	questions, err := s.cachedQuestions(ctx, examID)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = questions[i]
	}

	out := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			// Pool changed underneath a live attempt; refetch directly.
			return s.questionRepo.ListByIDs(ctx, ids)
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *ExamService) invalidateQuestions(ctx context.Context, examID uuid.UUID) {
	if err := s.rdb.Del(ctx, s.cacheKey.ExamQuestionsKey(examID.String())).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Question cache invalidation failed")
	}
}

// CreateExam creates a draft exam.
func (s *ExamService) CreateExam(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	exam := &model.Exam{
		Title:                 req.Title,
		Subject:               req.Subject,
		TotalQuestions:        req.TotalQuestions,
		DurationMinutes:       req.DurationMinutes,
		PassMarks:             req.PassMarks,
		Status:                model.ExamStatusDraft,
		ScheduledAt:           req.ScheduledAt,
		EndsAt:                req.EndsAt,
		FromStandard:          req.FromStandard,
		ToStandard:            req.ToStandard,
		ShuffleQuestions:      req.ShuffleQuestions,
		AllowReattemptTillEnd: req.AllowReattemptTillEnd,
	}
	if err := s.examRepo.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	s.log.Info().Str("exam_id", exam.ID.String()).Str("title", exam.Title).Msg("Exam created")
	return exam, nil
}

// UpdateExam applies an admin edit and invalidates the question cache so
// total/duration changes are immediately visible.
func (s *ExamService) UpdateExam(ctx context.Context, id uuid.UUID, req *model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		exam.Title = req.Title
	}
	if req.Subject != "" {
		exam.Subject = req.Subject
	}
	if req.TotalQuestions != nil {
		exam.TotalQuestions = *req.TotalQuestions
	}
	if req.DurationMinutes != nil {
		exam.DurationMinutes = *req.DurationMinutes
	}
	if req.PassMarks != nil {
		exam.PassMarks = *req.PassMarks
	}
	if req.ScheduledAt != nil {
		exam.ScheduledAt = req.ScheduledAt
	}
	if req.EndsAt != nil {
		exam.EndsAt = req.EndsAt
	}
	if req.FromStandard != nil {
		exam.FromStandard = req.FromStandard
	}
	if req.ToStandard != nil {
		exam.ToStandard = req.ToStandard
	}
	if req.ShuffleQuestions != nil {
		exam.ShuffleQuestions = *req.ShuffleQuestions
	}
	if req.AllowReattemptTillEnd != nil {
		exam.AllowReattemptTillEnd = *req.AllowReattemptTillEnd
	}

	if err := s.examRepo.Update(ctx, exam); err != nil {
		return nil, fmt.Errorf("update exam: %w", err)
	}
	s.invalidateQuestions(ctx, id)
	return exam, nil
}

// UpdateExamStatus moves an exam along draft/scheduled/active/completed/cancelled.
func (s *ExamService) UpdateExamStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error {
	if err := s.examRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.log.Info().Str("exam_id", id.String()).Str("status", string(status)).Msg("Exam status updated")
	return nil
}

// DeleteExam removes an exam and its dependents.
func (s *ExamService) DeleteExam(ctx context.Context, id uuid.UUID) error {
	if err := s.examRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateQuestions(ctx, id)
	return nil
}

// ListQuestions returns the full pool with grading fields, for the editor.
func (s *ExamService) ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	return s.cachedQuestions(ctx, examID)
}

// ReplaceQuestions swaps the exam's entire question pool in one
// transaction and drops the cached copy.
func (s *ExamService) ReplaceQuestions(ctx context.Context, examID uuid.UUID, req *model.ReplaceQuestionsRequest) error {
	questions := make([]model.Question, 0, len(req.Questions))
	for _, q := range req.Questions {
		questions = append(questions, model.Question{
			ExamID:        examID,
			QuestionText:  q.QuestionText,
			OptionA:       q.OptionA,
			OptionB:       q.OptionB,
			OptionC:       q.OptionC,
			OptionD:       q.OptionD,
			CorrectOption: q.CorrectOption,
			Explanation:   q.Explanation,
			OrderNum:      q.OrderNum,
		})
	}
	if err := s.questionRepo.ReplaceForExam(ctx, examID, questions); err != nil {
		return fmt.Errorf("replace questions: %w", err)
	}
	s.invalidateQuestions(ctx, examID)
	s.log.Info().Str("exam_id", examID.String()).Int("count", len(questions)).Msg("Question pool replaced")
	return nil
}

// ListResults returns the scored attempts for an exam, newest first.
func (s *ExamService) ListResults(ctx context.Context, examID uuid.UUID, limit, offset int) ([]repository.AttemptResultRow, int, error) {
	return s.attemptRepo.ListResultsByExam(ctx, examID, limit, offset)
}

// ResetAttempt grants a student a fresh try at a submitted attempt.
// The grant is recorded against the acting admin.
func (s *ExamService) ResetAttempt(ctx context.Context, adminID int, attemptID uuid.UUID) error {
	if err := s.attemptRepo.ResetAttempt(ctx, adminID, attemptID); err != nil {
		return err
	}
	s.log.Info().Int("admin_id", adminID).Str("attempt_id", attemptID.String()).Msg("Attempt reset granted")
	return nil
}
