package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rajisurvase/village-orbit-api/internal/model"
)

const examColumns = `id, title, subject, total_questions, duration_minutes,
	        scheduled_at, ends_at, status, from_standard, to_standard,
	        shuffle_questions, allow_reattempt_till_end_date, pass_marks,
	        created_at, updated_at`

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

func scanExam(row interface{ Scan(...any) error }) (*model.Exam, error) {
	e := &model.Exam{}
	err := row.Scan(&e.ID, &e.Title, &e.Subject, &e.TotalQuestions, &e.DurationMinutes,
		&e.ScheduledAt, &e.EndsAt, &e.Status, &e.FromStandard, &e.ToStandard,
		&e.ShuffleQuestions, &e.AllowReattemptTillEnd, &e.PassMarks,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id))
}

// ListVisible retrieves every exam a student may see in the portal:
// anything past draft, newest schedule first.
func (r *ExamRepository) ListVisible(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams
		 WHERE status IN ('scheduled', 'active', 'completed')
		 ORDER BY scheduled_at DESC NULLS LAST`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// ListPaginated retrieves exams for the admin console with a total count.
func (r *ExamRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.Exam, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exams`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, 0, err
		}
		exams = append(exams, *e)
	}
	return exams, total, rows.Err()
}

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, subject, total_questions, duration_minutes,
		                    scheduled_at, ends_at, status, from_standard, to_standard,
		                    shuffle_questions, allow_reattempt_till_end_date, pass_marks)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at, updated_at`,
		e.Title, e.Subject, e.TotalQuestions, e.DurationMinutes,
		e.ScheduledAt, e.EndsAt, e.Status, e.FromStandard, e.ToStandard,
		e.ShuffleQuestions, e.AllowReattemptTillEnd, e.PassMarks,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// Update overwrites the mutable fields of an exam.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET title = $1, subject = $2, total_questions = $3, duration_minutes = $4,
		     scheduled_at = $5, ends_at = $6, from_standard = $7, to_standard = $8,
		     shuffle_questions = $9, allow_reattempt_till_end_date = $10,
		     pass_marks = $11, updated_at = NOW()
		 WHERE id = $12`,
		e.Title, e.Subject, e.TotalQuestions, e.DurationMinutes,
		e.ScheduledAt, e.EndsAt, e.FromStandard, e.ToStandard,
		e.ShuffleQuestions, e.AllowReattemptTillEnd, e.PassMarks, e.ID)
	return err
}

// UpdateStatus updates an exam's lifecycle status.
func (r *ExamRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}

// Delete removes an exam. Only drafts should reach this path; the service
// enforces that.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	return err
}
