package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/zhakasov-bm/lms-backend/internal/middleware"
	"github.com/zhakasov-bm/lms-backend/internal/model"
	"github.com/zhakasov-bm/lms-backend/internal/response"
	"github.com/zhakasov-bm/lms-backend/internal/service"
	"github.com/zhakasov-bm/lms-backend/internal/validator"
)

// AttemptHandler handles the learner attempt endpoints.
type AttemptHandler struct {
	attemptService *service.AttemptService
	quizService    *service.QuizService
	log            zerolog.Logger
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService, quizService *service.QuizService, log zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		quizService:    quizService,
		log:            log.With().Str("component", "attempt_handler").Logger(),
	}
}

// StartAttempt godoc
// POST /api/v1/quiz/:quizId/attempts/start
// Starts or resumes the caller's attempt. Staff restart submitted attempts.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, ok := paramID(c, "quizId")
	if !ok {
		return
	}

	attempt, err := h.attemptService.Start(c.Request.Context(), quizID, claims.UserID, claims.Role)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, attempt)
}

// SubmitAttempt godoc
// POST /api/v1/attempts/:attemptId/submit
// Body: {"answers": [{"questionId": 1, "selectedOptionIds": [2, 3]}]}
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, ok := paramID(c, "attemptId")
	if !ok {
		return
	}

	var req model.SubmitAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.attemptService.Submit(c.Request.Context(), attemptID, claims.UserID, req.Answers)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ListAnswers godoc
// GET /api/v1/attempts/:attemptId/answers
func (h *AttemptHandler) ListAnswers(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, ok := paramID(c, "attemptId")
	if !ok {
		return
	}

	answers, err := h.attemptService.ListAnswers(c.Request.Context(), attemptID, claims.UserID, claims.Role)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	if answers == nil {
		answers = []model.AnswerRecord{}
	}

	response.Success(c, http.StatusOK, gin.H{"answers": answers})
}

// BestScore godoc
// GET /api/v1/modules/:moduleId/quiz/best-score
func (h *AttemptHandler) BestScore(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	moduleID, ok := paramID(c, "moduleId")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	quiz, err := h.quizService.PublishedQuizForModule(ctx, moduleID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	best, err := h.attemptService.BestScore(ctx, quiz.ID, claims.UserID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, model.BestScoreResponse{
		ModuleID:  moduleID,
		QuizID:    quiz.ID,
		BestScore: best,
	})
}

// ListAttempts godoc
// GET /api/v1/quiz/:quizId/attempts?page=1&per_page=20
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	quizID, ok := paramID(c, "quizId")
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	attempts, total, err := h.attemptService.ListAttempts(c.Request.Context(), quizID, page, perPage)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, attempts, response.NewPagination(page, perPage, total))
}
