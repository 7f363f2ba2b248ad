package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rajisurvase/village-orbit-api/internal/config"
	"github.com/rajisurvase/village-orbit-api/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AnswerWorker consumes the persist queue and writes each coalesced answer
// through the server-side save procedure. Delivery is at-least-once; the
// upsert keyed by (attempt, question) makes replays harmless.
type AnswerWorker struct {
	answerRepo *repository.AnswerRepository
	rdb        *redis.Client
	log        zerolog.Logger
}

// NewAnswerWorker creates a new AnswerWorker.
func NewAnswerWorker(answerRepo *repository.AnswerRepository, rdb *redis.Client, log zerolog.Logger) *AnswerWorker {
	return &AnswerWorker{
		answerRepo: answerRepo,
		rdb:        rdb,
		log:        log.With().Str("component", "answer_worker").Logger(),
	}
}

// queuedAnswer mirrors the payload pushed by the answer service.
type queuedAnswer struct {
	AttemptID        string `json:"attempt_id"`
	QuestionID       string `json:"question_id"`
	SelectedOption   string `json:"selected_option"`
	TimeTakenSeconds int    `json:"time_taken_seconds"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AnswerWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AnswerWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistAnswersQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	if err := w.persist(ctx, result[1]); err != nil {
		if isPermanent(err) {
			// The attempt was submitted (or the row vanished) while this
			// write sat in the queue. The store rejected it; drop it.
			w.log.Warn().Err(err).Msg("Dropping rejected answer write")
			return
		}
		w.log.Error().Err(err).Msg("Persist error, retrying in 5s")
		w.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *AnswerWorker) persist(ctx context.Context, raw string) error {
	var p queuedAnswer
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		// Malformed payloads never become valid; treat as permanent.
		return &pgconn.PgError{Code: "P0001", Message: err.Error()}
	}

	attemptID, err := uuid.Parse(p.AttemptID)
	if err != nil {
		return &pgconn.PgError{Code: "P0001", Message: "invalid attempt id"}
	}
	questionID, err := uuid.Parse(p.QuestionID)
	if err != nil {
		return &pgconn.PgError{Code: "P0001", Message: "invalid question id"}
	}

	return w.answerRepo.SaveAnswer(ctx, attemptID, questionID, p.SelectedOption, p.TimeTakenSeconds)
}

// isPermanent reports whether the store refused the write outright.
// save_exam_answer raises P0001 for closed attempts and unknown rows.
func isPermanent(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "P0001"
}

// drain processes all remaining items in the queue before shutdown.
func (w *AnswerWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistAnswersQueue).Result()
		if err != nil {
			break
		}

		if err := w.persist(ctx, result); err != nil {
			if isPermanent(err) {
				w.log.Warn().Err(err).Msg("Dropping rejected answer write during drain")
				continue
			}
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
