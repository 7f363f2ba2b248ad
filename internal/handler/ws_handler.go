package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rajisurvase/village-orbit-api/internal/middleware"
	"github.com/rajisurvase/village-orbit-api/internal/model"
	"github.com/rajisurvase/village-orbit-api/internal/service"
	ws "github.com/rajisurvase/village-orbit-api/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the exam-taking loop over a WebSocket: answer saves,
// countdown checkpoints, and submission, without per-request HTTP overhead.
// The HTTP endpoints remain as the fallback for clients without WS support.
type WSHandler struct {
	attemptService *service.AttemptService
	examService    *service.ExamService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attemptService *service.AttemptService, examService *service.ExamService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attemptService: attemptService,
		examService:    examService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/attempts/:attemptId/stream
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	attemptID, err := uuid.Parse(c.Param("attemptId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attempt ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	studentID := claims.UserID

	// Ownership is checked once up front; the loop then trusts the pair.
	if _, err := h.attemptService.State(c.Request.Context(), attemptID, studentID); err != nil {
		ws.WriteError(conn, "attempt not accessible")
		return
	}

	wsLog := h.log.With().
		Int("student_id", studentID).
		Str("attempt_id", attemptID.String()).
		Logger()

	wsLog.Info().Msg("Student connected")

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionAnswer:
			h.handleAnswer(conn, attemptID, studentID, &msg)
		case ws.ActionCheckpoint:
			h.handleCheckpoint(conn, attemptID, studentID, &msg)
		case ws.ActionSubmit:
			h.handleSubmit(conn, wsLog, attemptID, studentID)
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

func (h *WSHandler) handleAnswer(conn *websocket.Conn, attemptID uuid.UUID, studentID int, msg *ws.RequestPayload) {
	questionID, err := uuid.Parse(msg.QuestionID)
	if err != nil {
		ws.WriteError(conn, "invalid question_id format")
		return
	}
	switch msg.SelectedOption {
	case "A", "B", "C", "D":
	default:
		ws.WriteError(conn, "selected_option must be A, B, C or D")
		return
	}

	req := &model.SaveAnswerRequest{
		QuestionID:       questionID,
		SelectedOption:   msg.SelectedOption,
		TimeTakenSeconds: msg.TimeTakenSeconds,
	}
	if err := h.attemptService.SaveAnswer(context.Background(), attemptID, studentID, req); err != nil {
		ws.WriteError(conn, "save failed")
		return
	}

	ws.WriteTyped(conn, ws.SavedResponse{Event: ws.EventSaved, QuestionID: msg.QuestionID})
}

func (h *WSHandler) handleCheckpoint(conn *websocket.Conn, attemptID uuid.UUID, studentID int, msg *ws.RequestPayload) {
	if msg.RemainingSeconds < 0 {
		ws.WriteError(conn, "remaining_time_seconds must not be negative")
		return
	}
	if err := h.attemptService.Checkpoint(context.Background(), attemptID, studentID, msg.RemainingSeconds); err != nil {
		ws.WriteError(conn, "checkpoint failed")
		return
	}
	ws.WriteTyped(conn, ws.CheckpointedResponse{Event: ws.EventCheckpointed, RemainingSeconds: msg.RemainingSeconds})
}

func (h *WSHandler) handleSubmit(conn *websocket.Conn, wsLog zerolog.Logger, attemptID uuid.UUID, studentID int) {
	attempt, err := h.attemptService.Submit(context.Background(), attemptID, studentID)
	if err != nil {
		wsLog.Error().Err(err).Msg("WS submit failed")
		ws.WriteError(conn, "submit failed")
		return
	}

	score := 0
	if attempt.Score != nil {
		score = *attempt.Score
	}
	passed := false
	if exam, examErr := h.examService.GetExam(context.Background(), attempt.ExamID); examErr == nil {
		passed = score >= exam.PassMarks
	}
	ws.WriteTyped(conn, ws.SubmittedResponse{
		Event:  ws.EventSubmitted,
		Score:  score,
		Passed: passed,
	})
}
