package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rajisurvase/village-orbit-api/internal/model"
)

const attemptColumns = `id, exam_id, student_id, student_name, total_questions, status,
	        remaining_time_seconds, time_checkpoint_at, question_order,
	        integrity_pledge_accepted, start_snapshot_url, can_reattempt,
	        score, correct_answers, wrong_answers, unanswered,
	        started_at, end_time, last_activity_at, created_at`

// AttemptRepository handles exam attempt data access. The partial unique
// index idx_attempts_one_active makes the store itself enforce the
// one-active-attempt-per-(exam, student) invariant.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func scanAttempt(row interface{ Scan(...any) error }) (*model.ExamAttempt, error) {
	a := &model.ExamAttempt{}
	var orderRaw []byte
	err := row.Scan(&a.ID, &a.ExamID, &a.StudentID, &a.StudentName, &a.TotalQuestions, &a.Status,
		&a.RemainingSeconds, &a.TimeCheckpointAt, &orderRaw,
		&a.IntegrityPledgeAccepted, &a.StartSnapshotURL, &a.CanReattempt,
		&a.Score, &a.CorrectAnswers, &a.WrongAnswers, &a.Unanswered,
		&a.StartedAt, &a.EndTime, &a.LastActivityAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(orderRaw, &a.QuestionOrder); err != nil {
		return nil, fmt.Errorf("decode question order: %w", err)
	}
	return a, nil
}

// GetByID retrieves an attempt by its UUID.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamAttempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts WHERE id = $1`, id))
}

// GetLatestByExamAndStudent retrieves the most recent attempt for an
// exam/student pair, or pgx.ErrNoRows when none exists.
func (r *AttemptRepository) GetLatestByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamAttempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+`
		 FROM exam_attempts
		 WHERE exam_id = $1 AND student_id = $2
		 ORDER BY created_at DESC
		 LIMIT 1`, examID, studentID))
}

// ListByExamAndStudent retrieves every attempt for an exam/student pair,
// newest first. Used for eligibility and reattempt decisions.
func (r *AttemptRepository) ListByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) ([]model.ExamAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+`
		 FROM exam_attempts
		 WHERE exam_id = $1 AND student_id = $2
		 ORDER BY created_at DESC`, examID, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAttempts(rows)
}

// ListByStudent retrieves all attempts for a student, newest first.
func (r *AttemptRepository) ListByStudent(ctx context.Context, studentID int) ([]model.ExamAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+`
		 FROM exam_attempts
		 WHERE student_id = $1
		 ORDER BY created_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAttempts(rows)
}

// Create inserts a fresh NOT_STARTED attempt. A concurrent create for the
// same pair loses against the partial unique index and gets pgx.ErrNoRows
// back; callers re-fetch and resume the winner's row.
func (r *AttemptRepository) Create(ctx context.Context, a *model.ExamAttempt) error {
	orderJSON, err := json.Marshal(a.QuestionOrder)
	if err != nil {
		return fmt.Errorf("encode question order: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_attempts (exam_id, student_id, student_name, total_questions,
		                            status, remaining_time_seconds, question_order)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (exam_id, student_id) WHERE status <> 'SUBMITTED' DO NOTHING
		 RETURNING id, time_checkpoint_at, last_activity_at, created_at`,
		a.ExamID, a.StudentID, a.StudentName, a.TotalQuestions,
		model.AttemptStatusNotStarted, a.RemainingSeconds, orderJSON,
	).Scan(&a.ID, &a.TimeCheckpointAt, &a.LastActivityAt, &a.CreatedAt)
}

// BeginAttempt performs the integrity gate's single persist step: pledge
// flag, identity snapshot, and the NOT_STARTED→IN_PROGRESS transition land
// in one write. Returns false when the attempt was not NOT_STARTED.
func (r *AttemptRepository) BeginAttempt(ctx context.Context, id uuid.UUID, snapshotURL string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_attempts
		 SET status = $1, integrity_pledge_accepted = TRUE, start_snapshot_url = $2,
		     started_at = NOW(), time_checkpoint_at = NOW(), last_activity_at = NOW()
		 WHERE id = $3 AND status = $4`,
		model.AttemptStatusInProgress, snapshotURL, id, model.AttemptStatusNotStarted)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkInProgress flips a resumed, already-pledged attempt to IN_PROGRESS
// without touching the integrity fields. No-op if already IN_PROGRESS.
func (r *AttemptRepository) MarkInProgress(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_attempts
		 SET status = $1, started_at = COALESCE(started_at, NOW()),
		     time_checkpoint_at = NOW(), last_activity_at = NOW()
		 WHERE id = $2 AND status = $3`,
		model.AttemptStatusInProgress, id, model.AttemptStatusNotStarted)
	return err
}

// Checkpoint persists the countdown. The stored value is first decremented
// by the wall-clock time elapsed since the previous checkpoint, then
// clamped to the client's claim. A client reporting less time spent than
// actually passed is still charged the full elapsed time, so repeated
// low-ball checkpoints cannot stretch the exam clock or defer the
// sweeper's deadline.
func (r *AttemptRepository) Checkpoint(ctx context.Context, id uuid.UUID, remainingSeconds int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_attempts
		 SET remaining_time_seconds = LEAST(
		         GREATEST(remaining_time_seconds - EXTRACT(EPOCH FROM (NOW() - time_checkpoint_at))::int, 0),
		         $1),
		     time_checkpoint_at = NOW(), last_activity_at = NOW()
		 WHERE id = $2 AND status = $3`,
		remainingSeconds, id, model.AttemptStatusInProgress)
	return err
}

// FinalizeSubmission writes every terminal field in one statement, guarded
// by the IN_PROGRESS status. Returns false when another submission already
// won; the caller treats that as a no-op, so duplicate auto-submit triggers
// are harmless.
func (r *AttemptRepository) FinalizeSubmission(ctx context.Context, id uuid.UUID, res model.AttemptResult) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_attempts
		 SET status = $1, score = $2, correct_answers = $3, wrong_answers = $4,
		     unanswered = $5, remaining_time_seconds = 0, can_reattempt = FALSE,
		     end_time = NOW(), time_checkpoint_at = NOW(), last_activity_at = NOW()
		 WHERE id = $6 AND status = $7`,
		model.AttemptStatusSubmitted, res.Score, res.CorrectAnswers, res.WrongAnswers,
		res.Unanswered, id, model.AttemptStatusInProgress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListExpired returns IN_PROGRESS attempts whose checkpointed countdown has
// run out, plus a grace period covering the checkpoint cadence.
func (r *AttemptRepository) ListExpired(ctx context.Context, grace time.Duration) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM exam_attempts
		 WHERE status = $1
		   AND time_checkpoint_at + make_interval(secs => remaining_time_seconds) + $2 < NOW()`,
		model.AttemptStatusInProgress, grace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AttemptResultRow combines student data with attempt results for the admin
// results listing.
type AttemptResultRow struct {
	AttemptID   uuid.UUID           `json:"attempt_id"`
	StudentID   int                 `json:"student_id"`
	StudentName string              `json:"student_name"`
	Standard    *string             `json:"standard"`
	Status      model.AttemptStatus `json:"status"`
	Score       *int                `json:"score"`
	Correct     *int                `json:"correct_answers"`
	Wrong       *int                `json:"wrong_answers"`
	Unanswered  *int                `json:"unanswered"`
	StartedAt   *time.Time          `json:"started_at"`
	EndTime     *time.Time          `json:"end_time"`
}

// ListResultsByExam retrieves paginated attempt results for an exam.
func (r *AttemptRepository) ListResultsByExam(ctx context.Context, examID uuid.UUID, limit, offset int) ([]AttemptResultRow, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_attempts WHERE exam_id = $1`, examID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT a.id, s.id, s.name, s.standard, a.status,
		        a.score, a.correct_answers, a.wrong_answers, a.unanswered,
		        a.started_at, a.end_time
		 FROM exam_attempts a
		 JOIN students s ON a.student_id = s.id
		 WHERE a.exam_id = $1
		 ORDER BY a.created_at DESC
		 LIMIT $2 OFFSET $3`, examID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []AttemptResultRow
	for rows.Next() {
		var row AttemptResultRow
		if err := rows.Scan(&row.AttemptID, &row.StudentID, &row.StudentName, &row.Standard,
			&row.Status, &row.Score, &row.Correct, &row.Wrong, &row.Unanswered,
			&row.StartedAt, &row.EndTime); err != nil {
			return nil, 0, err
		}
		results = append(results, row)
	}
	return results, total, rows.Err()
}

// ResetAttempt invokes the admin-only server-side procedure that permits a
// reattempt after submission.
func (r *AttemptRepository) ResetAttempt(ctx context.Context, adminID int, attemptID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `SELECT reset_exam_attempt($1, $2)`, adminID, attemptID)
	return err
}

func collectAttempts(rows pgx.Rows) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}
