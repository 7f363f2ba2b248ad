package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rajisurvase/village-orbit-api/internal/config"
	"github.com/rajisurvase/village-orbit-api/internal/handler"
	"github.com/rajisurvase/village-orbit-api/internal/middleware"
	"github.com/rajisurvase/village-orbit-api/internal/response"
	"github.com/rajisurvase/village-orbit-api/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Attempt   *handler.AttemptHandler
	ExamAdmin *handler.ExamAdminHandler
	WS        *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Serve identity snapshots statically with aggressive caching (1 year).
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/student/register", handlers.Auth.StudentRegister)
		auth.POST("/student/login", handlers.Auth.StudentLogin)
		auth.POST("/admin/login", handlers.Auth.AdminLogin)

		// Authenticated profile routes
		auth.POST("/student/logout", middleware.RequireStudentJWT(authService), handlers.Auth.StudentLogout)
		auth.GET("/student/me", middleware.RequireStudentJWT(authService), handlers.Auth.GetStudentProfile)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.GetAdminProfile)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/exams", handlers.Attempt.ListExams)
		studentAPI.GET("/exams/:examId/instructions", handlers.Attempt.GetInstructions)
		studentAPI.POST("/exams/:examId/attempts", handlers.Attempt.StartAttempt)

		studentAPI.POST("/attempts/:attemptId/integrity", handlers.Attempt.CompleteIntegrity)
		studentAPI.GET("/attempts/:attemptId/paper", handlers.Attempt.GetPaper)
		studentAPI.GET("/attempts/:attemptId/state", handlers.Attempt.GetState)
		studentAPI.PUT("/attempts/:attemptId/answers", handlers.Attempt.SaveAnswer)
		studentAPI.PUT("/attempts/:attemptId/checkpoint", handlers.Attempt.Checkpoint)
		studentAPI.POST("/attempts/:attemptId/submit", handlers.Attempt.Submit)
		studentAPI.GET("/attempts/:attemptId/result", handlers.Attempt.GetResult)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/attempts/:attemptId/stream", handlers.WS.AttemptStream)
	}

	// ─── 4. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/exams", handlers.ExamAdmin.ListExams)
		adminAPI.POST("/exams", handlers.ExamAdmin.CreateExam)
		adminAPI.GET("/exams/:examId", handlers.ExamAdmin.GetExam)
		adminAPI.PUT("/exams/:examId", handlers.ExamAdmin.UpdateExam)
		adminAPI.PATCH("/exams/:examId/status", handlers.ExamAdmin.UpdateExamStatus)
		adminAPI.DELETE("/exams/:examId", handlers.ExamAdmin.DeleteExam)

		adminAPI.GET("/exams/:examId/questions", handlers.ExamAdmin.ListQuestions)
		adminAPI.PUT("/exams/:examId/questions", handlers.ExamAdmin.ReplaceQuestions)
		adminAPI.GET("/exams/:examId/results", handlers.ExamAdmin.ListResults)

		adminAPI.POST("/attempts/:attemptId/reset", handlers.ExamAdmin.ResetAttempt)
	}

	return router
}
