package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rajisurvase/village-orbit-api/internal/config"
	"github.com/rajisurvase/village-orbit-api/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AnswerPersister is the durable write/read side of the answer store.
// *repository.AnswerRepository satisfies it; tests substitute a fake.
type AnswerPersister interface {
	SaveAnswer(ctx context.Context, attemptID, questionID uuid.UUID, selectedOption string, timeTakenSeconds int) error
	ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.ExamAnswer, error)
}

// ErrAttemptNotActive is returned when an answer arrives for an attempt that
// is not IN_PROGRESS.
var ErrAttemptNotActive = errors.New("attempt is not in progress")

// AnswerService is the answer store: an optimistic hot copy in Redis that is
// visible immediately, plus debounced, at-least-once durable writes drained
// by the answer worker. Per question, only the last selection inside the
// debounce window reaches the persist queue.
type AnswerService struct {
	answerRepo AnswerPersister
	rdb        *redis.Client
	register   *WriteRegister
	log        zerolog.Logger
}

// NewAnswerService creates a new AnswerService.
func NewAnswerService(answerRepo AnswerPersister, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *AnswerService {
	s := &AnswerService{
		answerRepo: answerRepo,
		rdb:        rdb,
		log:        log.With().Str("component", "answer_service").Logger(),
	}
	s.register = NewWriteRegister(cfg.AnswerDebounce, s.enqueue)
	return s
}

// queuedAnswer is the persist-queue payload consumed by the answer worker.
type queuedAnswer struct {
	AttemptID        string `json:"attempt_id"`
	QuestionID       string `json:"question_id"`
	SelectedOption   string `json:"selected_option"`
	TimeTakenSeconds int    `json:"time_taken_seconds"`
}

// Select records a selection: the hot copy is written immediately so state
// reads see it at once, and the durable write is debounced through the
// pending-write register. A failed hot write is returned to the caller so
// the client can roll back its optimistic value and re-select.
func (s *AnswerService) Select(ctx context.Context, attempt *model.ExamAttempt, req *model.SaveAnswerRequest) error {
	if attempt.Status != model.AttemptStatusInProgress {
		return ErrAttemptNotActive
	}

	key := config.CacheKey.AttemptAnswersKey(attempt.ID.String())
	if err := s.rdb.HSet(ctx, key, req.QuestionID.String(), req.SelectedOption).Err(); err != nil {
		return fmt.Errorf("hot answer write: %w", err)
	}

	s.register.Put(PendingAnswer{
		AttemptID:        attempt.ID.String(),
		QuestionID:       req.QuestionID.String(),
		SelectedOption:   req.SelectedOption,
		TimeTakenSeconds: req.TimeTakenSeconds,
	})
	return nil
}

// enqueue is the register's fire callback: the debounce window elapsed, so
// the coalesced value goes onto the persist queue for the worker.
func (s *AnswerService) enqueue(p PendingAnswer) {
	payload, _ := json.Marshal(queuedAnswer{
		AttemptID:        p.AttemptID,
		QuestionID:       p.QuestionID,
		SelectedOption:   p.SelectedOption,
		TimeTakenSeconds: p.TimeTakenSeconds,
	})
	if err := s.rdb.RPush(context.Background(), config.WorkerKey.PersistAnswersQueue, payload).Err(); err != nil {
		s.log.Error().Err(err).
			Str("attempt_id", p.AttemptID).
			Str("question_id", p.QuestionID).
			Msg("Failed to enqueue answer")
	}
}

// DrainPending flushes every acknowledged answer for the attempt to the
// durable store synchronously. Called when submission begins so no answer
// save can land after the terminal write, and so scoring reads a complete
// set. Two sources are flushed: the debounce register (writes still inside
// their window) and the hot copy (writes whose window elapsed but whose
// queue entry the worker has not persisted yet; the worker's late write
// would be rejected by the status guard once submission lands).
func (s *AnswerService) DrainPending(ctx context.Context, attemptID uuid.UUID) error {
	for _, p := range s.register.Drain(attemptID.String()) {
		qid, err := uuid.Parse(p.QuestionID)
		if err != nil {
			continue
		}
		if err := s.answerRepo.SaveAnswer(ctx, attemptID, qid, p.SelectedOption, p.TimeTakenSeconds); err != nil {
			return fmt.Errorf("drain pending answer: %w", err)
		}
	}

	hot, err := s.rdb.HGetAll(ctx, config.CacheKey.AttemptAnswersKey(attemptID.String())).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("read hot answers: %w", err)
	}
	persisted, err := s.answerRepo.ListByAttempt(ctx, attemptID)
	if err != nil {
		return fmt.Errorf("read persisted answers: %w", err)
	}
	for _, p := range unpersistedSelections(hot, persisted) {
		qid, err := uuid.Parse(p.QuestionID)
		if err != nil {
			continue
		}
		if err := s.answerRepo.SaveAnswer(ctx, attemptID, qid, p.SelectedOption, p.TimeTakenSeconds); err != nil {
			return fmt.Errorf("reconcile answer: %w", err)
		}
	}
	return nil
}

// unpersistedSelections returns the hot-copy selections that are absent
// from, or differ from, the durable rows. The hot copy is written before a
// save is acknowledged, so anything it holds beyond the persisted set is an
// acknowledged answer still in flight through the queue.
func unpersistedSelections(hot map[string]string, persisted []model.ExamAnswer) []PendingAnswer {
	durable := make(map[string]string, len(persisted))
	for i := range persisted {
		durable[persisted[i].QuestionID.String()] = persisted[i].SelectedOption
	}

	var out []PendingAnswer
	for qid, opt := range hot {
		if durable[qid] != opt {
			out = append(out, PendingAnswer{QuestionID: qid, SelectedOption: opt})
		}
	}
	return out
}

// Hydrate reconstructs the question→option map for a resumed attempt. The
// Redis hot copy is preferred; on a miss the durable rows are read back and
// the hot copy is rebuilt.
func (s *AnswerService) Hydrate(ctx context.Context, attemptID uuid.UUID) (map[string]string, error) {
	key := config.CacheKey.AttemptAnswersKey(attemptID.String())

	answers, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read hot answers: %w", err)
	}
	if len(answers) > 0 {
		return answers, nil
	}

	// Cache miss (eviction or a resume on a fresh Redis). PostgreSQL is the
	// system of record; self-heal the hot copy from it.
	rows, err := s.answerRepo.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("read persisted answers: %w", err)
	}

	answers = make(map[string]string, len(rows))
	for i := range rows {
		answers[rows[i].QuestionID.String()] = rows[i].SelectedOption
	}

	if len(answers) > 0 {
		fields := make(map[string]interface{}, len(answers))
		for k, v := range answers {
			fields[k] = v
		}
		_ = s.rdb.HSet(ctx, key, fields).Err()
	}

	return answers, nil
}

// ListPersisted returns the durable answer rows for an attempt.
func (s *AnswerService) ListPersisted(ctx context.Context, attemptID uuid.UUID) ([]model.ExamAnswer, error) {
	return s.answerRepo.ListByAttempt(ctx, attemptID)
}

// ClearHot drops the attempt's hot answer map after submission.
func (s *AnswerService) ClearHot(ctx context.Context, attemptID uuid.UUID) {
	if err := s.rdb.Del(ctx, config.CacheKey.AttemptAnswersKey(attemptID.String())).Err(); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("Failed to clear hot answers")
	}
}
