package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rajisurvase/village-orbit-api/internal/model"
)

// AnswerRepository handles answer data access. All writes go through the
// save_exam_answer procedure so correctness is always derived server-side
// and saves against non-active attempts are rejected by the store.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// SaveAnswer upserts one selection via the server-side procedure.
func (r *AnswerRepository) SaveAnswer(ctx context.Context, attemptID, questionID uuid.UUID, selectedOption string, timeTakenSeconds int) error {
	_, err := r.pool.Exec(ctx,
		`SELECT save_exam_answer($1, $2, $3, $4)`,
		attemptID, questionID, selectedOption, timeTakenSeconds)
	return err
}

// ListByAttempt retrieves all persisted answers for an attempt.
func (r *AnswerRepository) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.ExamAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT attempt_id, question_id, selected_option, is_correct,
		        time_taken_seconds, answered_at, updated_at
		 FROM exam_answers
		 WHERE attempt_id = $1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.ExamAnswer
	for rows.Next() {
		var a model.ExamAnswer
		if err := rows.Scan(&a.AttemptID, &a.QuestionID, &a.SelectedOption, &a.IsCorrect,
			&a.TimeTakenSeconds, &a.AnsweredAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
