package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/rajisurvase/village-orbit-api/internal/middleware"
	"github.com/rajisurvase/village-orbit-api/internal/model"
	"github.com/rajisurvase/village-orbit-api/internal/response"
	"github.com/rajisurvase/village-orbit-api/internal/service"
	"github.com/rajisurvase/village-orbit-api/internal/validator"
)

// ExamAdminHandler handles exam management endpoints for administrators.
type ExamAdminHandler struct {
	examService *service.ExamService
}

// NewExamAdminHandler creates a new ExamAdminHandler.
func NewExamAdminHandler(examService *service.ExamService) *ExamAdminHandler {
	return &ExamAdminHandler{examService: examService}
}

func paginationParams(c *gin.Context) (limit, offset, page int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return perPage, (page - 1) * perPage, page
}

// ListExams godoc
// GET /api/v1/admin/exams
func (h *ExamAdminHandler) ListExams(c *gin.Context) {
	limit, offset, page := paginationParams(c)

	exams, total, err := h.examService.ListPaginated(c.Request.Context(), limit, offset)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, &response.Pagination{
		Page:       page,
		PerPage:    limit,
		TotalItems: total,
		TotalPages: (total + limit - 1) / limit,
	})
}

// GetExam godoc
// GET /api/v1/admin/exams/:examId
func (h *ExamAdminHandler) GetExam(c *gin.Context) {
	examID, ok := parseUUIDParam(c, "examId")
	if !ok {
		return
	}

	exam, err := h.examService.GetExam(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// CreateExam godoc
// POST /api/v1/admin/exams
func (h *ExamAdminHandler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.CreateExam(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// UpdateExam godoc
// PUT /api/v1/admin/exams/:examId
func (h *ExamAdminHandler) UpdateExam(c *gin.Context) {
	examID, ok := parseUUIDParam(c, "examId")
	if !ok {
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.UpdateExam(c.Request.Context(), examID, &req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// UpdateExamStatus godoc
// PATCH /api/v1/admin/exams/:examId/status
func (h *ExamAdminHandler) UpdateExamStatus(c *gin.Context) {
	examID, ok := parseUUIDParam(c, "examId")
	if !ok {
		return
	}

	var req model.UpdateExamStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.examService.UpdateExamStatus(c.Request.Context(), examID, req.Status); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// DeleteExam godoc
// DELETE /api/v1/admin/exams/:examId
func (h *ExamAdminHandler) DeleteExam(c *gin.Context) {
	examID, ok := parseUUIDParam(c, "examId")
	if !ok {
		return
	}

	if err := h.examService.DeleteExam(c.Request.Context(), examID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ListQuestions godoc
// GET /api/v1/admin/exams/:examId/questions
// Returns the full pool including correct options, for the editor.
func (h *ExamAdminHandler) ListQuestions(c *gin.Context) {
	examID, ok := parseUUIDParam(c, "examId")
	if !ok {
		return
	}

	questions, err := h.examService.ListQuestions(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// ReplaceQuestions godoc
// PUT /api/v1/admin/exams/:examId/questions
// Replaces the exam's entire question pool.
func (h *ExamAdminHandler) ReplaceQuestions(c *gin.Context) {
	examID, ok := parseUUIDParam(c, "examId")
	if !ok {
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.examService.ReplaceQuestions(c.Request.Context(), examID, &req); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ListResults godoc
// GET /api/v1/admin/exams/:examId/results
// Returns scored attempts for the exam, newest first.
func (h *ExamAdminHandler) ListResults(c *gin.Context) {
	examID, ok := parseUUIDParam(c, "examId")
	if !ok {
		return
	}
	limit, offset, page := paginationParams(c)

	rows, total, err := h.examService.ListResults(c.Request.Context(), examID, limit, offset)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": rows}, &response.Pagination{
		Page:       page,
		PerPage:    limit,
		TotalItems: total,
		TotalPages: (total + limit - 1) / limit,
	})
}

// ResetAttempt godoc
// POST /api/v1/admin/attempts/:attemptId/reset
// Grants the student a fresh attempt at a submitted exam.
func (h *ExamAdminHandler) ResetAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := parseUUIDParam(c, "attemptId")
	if !ok {
		return
	}

	if err := h.examService.ResetAttempt(c.Request.Context(), claims.UserID, attemptID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
