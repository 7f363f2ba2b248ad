package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rajisurvase/village-orbit-api/internal/middleware"
	"github.com/rajisurvase/village-orbit-api/internal/model"
	"github.com/rajisurvase/village-orbit-api/internal/repository"
	"github.com/rajisurvase/village-orbit-api/internal/response"
	"github.com/rajisurvase/village-orbit-api/internal/service"
	"github.com/rajisurvase/village-orbit-api/internal/validator"
)

// AttemptHandler serves the student exam-taking flow: exam list, integrity
// gate, paper, answers, countdown checkpoints, and submission.
type AttemptHandler struct {
	attemptService *service.AttemptService
	examService    *service.ExamService
	studentRepo    *repository.StudentRepository
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(
	attemptService *service.AttemptService,
	examService *service.ExamService,
	studentRepo *repository.StudentRepository,
) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		examService:    examService,
		studentRepo:    studentRepo,
	}
}

func (h *AttemptHandler) currentStudent(c *gin.Context) *model.Student {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil
	}
	student, err := h.studentRepo.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return nil
	}
	return student
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// failAttemptError maps lifecycle errors onto HTTP codes.
func failAttemptError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotEligible):
		response.Fail(c, http.StatusForbidden, response.ErrNotEligibleCode)
	case errors.Is(err, service.ErrExamWindowClosed):
		response.Fail(c, http.StatusForbidden, response.ErrWindowClosed)
	case errors.Is(err, service.ErrExamNotAvailable):
		response.Fail(c, http.StatusForbidden, response.ErrExamNotAvailable)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, service.ErrAttemptForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrPledgeRequired):
		response.Fail(c, http.StatusBadRequest, response.ErrPledgeRequired)
	case errors.Is(err, service.ErrSnapshotRequired):
		response.Fail(c, http.StatusBadRequest, response.ErrSnapshotRequired)
	case errors.Is(err, service.ErrAttemptNotActive):
		response.Fail(c, http.StatusConflict, response.ErrAttemptNotActive)
	case errors.Is(err, service.ErrAttemptNotSubmitted):
		response.Fail(c, http.StatusConflict, response.ErrNotSubmittedYet)
	case errors.Is(err, service.ErrNotEnoughQuestions):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
	case errors.Is(err, service.ErrUnsupportedSnapshotType), errors.Is(err, service.ErrMalformedSnapshot):
		response.Fail(c, http.StatusBadRequest, response.ErrSnapshotRejected)
	case errors.Is(err, service.ErrSnapshotTooLarge):
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrSnapshotTooLarge)
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// ListExams godoc
// GET /api/v1/student/exams
// Returns visible exams classified for the student's portal list.
func (h *AttemptHandler) ListExams(c *gin.Context) {
	student := h.currentStudent(c)
	if student == nil {
		return
	}

	exams, err := h.examService.ListVisible(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	cards, err := h.attemptService.ListExamsForStudent(c.Request.Context(), student, exams)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": cards})
}

// GetInstructions godoc
// GET /api/v1/student/exams/:examId/instructions
// Returns the exam metadata plus the static instruction and pledge texts.
func (h *AttemptHandler) GetInstructions(c *gin.Context) {
	examID, ok := parseUUIDParam(c, "examId")
	if !ok {
		return
	}

	exam, err := h.examService.GetExam(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"exam":         exam,
		"instructions": model.DefaultInstructions(),
	})
}

// StartAttempt godoc
// POST /api/v1/student/exams/:examId/attempts
// Starts a fresh attempt or resumes the active one.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	student := h.currentStudent(c)
	if student == nil {
		return
	}
	examID, ok := parseUUIDParam(c, "examId")
	if !ok {
		return
	}

	attempt, resumed, err := h.attemptService.StartOrResume(c.Request.Context(), examID, student)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	status := http.StatusCreated
	if resumed {
		status = http.StatusOK
	}
	response.Success(c, status, gin.H{"attempt": attempt, "resumed": resumed})
}

// CompleteIntegrity godoc
// POST /api/v1/student/attempts/:attemptId/integrity
// Persists the pledge and identity snapshot, moving the attempt IN_PROGRESS.
func (h *AttemptHandler) CompleteIntegrity(c *gin.Context) {
	student := h.currentStudent(c)
	if student == nil {
		return
	}
	attemptID, ok := parseUUIDParam(c, "attemptId")
	if !ok {
		return
	}

	var req model.CompleteIntegrityRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attemptService.CompleteIntegrity(c.Request.Context(), attemptID, student.ID, &req)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// GetPaper godoc
// GET /api/v1/student/attempts/:attemptId/paper
// Returns the questions in the attempt's fixed order, without answers.
func (h *AttemptHandler) GetPaper(c *gin.Context) {
	student := h.currentStudent(c)
	if student == nil {
		return
	}
	attemptID, ok := parseUUIDParam(c, "attemptId")
	if !ok {
		return
	}

	paper, err := h.attemptService.Paper(c.Request.Context(), attemptID, student.ID)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": paper})
}

// GetState godoc
// GET /api/v1/student/attempts/:attemptId/state
// Returns the hydration payload used to resume an interrupted session.
func (h *AttemptHandler) GetState(c *gin.Context) {
	student := h.currentStudent(c)
	if student == nil {
		return
	}
	attemptID, ok := parseUUIDParam(c, "attemptId")
	if !ok {
		return
	}

	state, err := h.attemptService.State(c.Request.Context(), attemptID, student.ID)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// SaveAnswer godoc
// PUT /api/v1/student/attempts/:attemptId/answers
// Records a selection. Writes are debounced and coalesced server-side.
func (h *AttemptHandler) SaveAnswer(c *gin.Context) {
	student := h.currentStudent(c)
	if student == nil {
		return
	}
	attemptID, ok := parseUUIDParam(c, "attemptId")
	if !ok {
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.attemptService.SaveAnswer(c.Request.Context(), attemptID, student.ID, &req); err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Checkpoint godoc
// PUT /api/v1/student/attempts/:attemptId/checkpoint
// Persists the remaining countdown time.
func (h *AttemptHandler) Checkpoint(c *gin.Context) {
	student := h.currentStudent(c)
	if student == nil {
		return
	}
	attemptID, ok := parseUUIDParam(c, "attemptId")
	if !ok {
		return
	}

	var req model.CheckpointRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.attemptService.Checkpoint(c.Request.Context(), attemptID, student.ID, req.RemainingSeconds); err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Submit godoc
// POST /api/v1/student/attempts/:attemptId/submit
// Finalizes the attempt. Safe to call more than once.
func (h *AttemptHandler) Submit(c *gin.Context) {
	student := h.currentStudent(c)
	if student == nil {
		return
	}
	attemptID, ok := parseUUIDParam(c, "attemptId")
	if !ok {
		return
	}

	attempt, err := h.attemptService.Submit(c.Request.Context(), attemptID, student.ID)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// GetResult godoc
// GET /api/v1/student/attempts/:attemptId/result
// Returns the stored score and per-question review for a submitted attempt.
func (h *AttemptHandler) GetResult(c *gin.Context) {
	student := h.currentStudent(c)
	if student == nil {
		return
	}
	attemptID, ok := parseUUIDParam(c, "attemptId")
	if !ok {
		return
	}

	attempt, answers, err := h.attemptService.Result(c.Request.Context(), attemptID, student.ID)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt, "answers": answers})
}
