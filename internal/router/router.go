package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/zhakasov-bm/lms-backend/internal/config"
	"github.com/zhakasov-bm/lms-backend/internal/handler"
	"github.com/zhakasov-bm/lms-backend/internal/middleware"
	"github.com/zhakasov-bm/lms-backend/internal/response"
	"github.com/zhakasov-bm/lms-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Quiz    *handler.QuizHandler
	Attempt *handler.AttemptHandler
	// Monitor is nil when Redis is not configured.
	Monitor *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// attemptLimiter throttles attempt start and submit per user; nil disables it.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	attemptLimiter *middleware.RateLimiter,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	throttle := func(c *gin.Context) { c.Next() }
	if attemptLimiter != nil {
		throttle = attemptLimiter.Middleware()
	}
	staff := middleware.RequireStaff()

	api := router.Group("/api/v1")
	api.Use(middleware.RequireAuth(authService))

	// ─── 1. Module-scoped quiz views ───────────────────────────────────
	modules := api.Group("/modules/:moduleId/quiz")
	{
		modules.POST("", staff, middleware.CacheControl(middleware.CacheNoStore), handlers.Quiz.EnsureQuiz)
		modules.GET("", middleware.CacheControl(middleware.CachePrivateRevalidate), handlers.Quiz.GetLearnerView)
		modules.GET("/admin", staff, middleware.CacheControl(middleware.CacheNoStore), handlers.Quiz.GetStaffView)
		modules.GET("/best-score", middleware.CacheControl(middleware.CacheNoStore), handlers.Attempt.BestScore)
	}

	// ─── 2. Quiz authoring (staff) ─────────────────────────────────────
	authoring := api.Group("")
	authoring.Use(staff, middleware.CacheControl(middleware.CacheNoStore))
	{
		authoring.PATCH("/quiz/:quizId", handlers.Quiz.UpdateQuiz)
		authoring.PATCH("/quiz/:quizId/publish", handlers.Quiz.SetPublished)
		authoring.POST("/quiz/:quizId/questions", handlers.Quiz.AddQuestion)
		authoring.PATCH("/quiz/:quizId/questions/reorder", handlers.Quiz.ReorderQuestions)
		authoring.GET("/quiz/:quizId/attempts", handlers.Attempt.ListAttempts)

		authoring.PATCH("/questions/:questionId", handlers.Quiz.UpdateQuestion)
		authoring.DELETE("/questions/:questionId", handlers.Quiz.DeleteQuestion)
		authoring.POST("/questions/:questionId/options", handlers.Quiz.AddOption)
		authoring.PATCH("/questions/:questionId/options/reorder", handlers.Quiz.ReorderOptions)

		authoring.PATCH("/options/:optionId", handlers.Quiz.UpdateOption)
		authoring.DELETE("/options/:optionId", handlers.Quiz.DeleteOption)

		if handlers.Monitor != nil {
			authoring.GET("/quiz/:quizId/monitor", handlers.Monitor.MonitorQuiz)
		}
	}

	// ─── 3. Attempts (any authenticated user) ──────────────────────────
	attempts := api.Group("")
	attempts.Use(middleware.CacheControl(middleware.CacheNoStore))
	{
		attempts.POST("/quiz/:quizId/attempts/start", throttle, handlers.Attempt.StartAttempt)
		attempts.POST("/attempts/:attemptId/submit", throttle, handlers.Attempt.SubmitAttempt)
		attempts.GET("/attempts/:attemptId/answers", handlers.Attempt.ListAnswers)
	}

	return router
}
