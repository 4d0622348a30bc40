package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/zhakasov-bm/lms-backend/internal/model"
	"github.com/zhakasov-bm/lms-backend/internal/response"
	"github.com/zhakasov-bm/lms-backend/internal/service"
	"github.com/zhakasov-bm/lms-backend/internal/validator"
)

// QuizHandler handles quiz authoring, publication and quiz views.
type QuizHandler struct {
	quizService     *service.QuizService
	orderingService *service.OrderingService
	log             zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService, orderingService *service.OrderingService, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		quizService:     quizService,
		orderingService: orderingService,
		log:             log.With().Str("component", "quiz_handler").Logger(),
	}
}

// EnsureQuiz godoc
// POST /api/v1/modules/:moduleId/quiz
// Returns the module's quiz, creating it on first call.
func (h *QuizHandler) EnsureQuiz(c *gin.Context) {
	moduleID, ok := paramID(c, "moduleId")
	if !ok {
		return
	}

	quiz, err := h.quizService.EnsureQuiz(c.Request.Context(), moduleID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, quiz)
}

// UpdateQuiz godoc
// PATCH /api/v1/quiz/:quizId
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	quizID, ok := paramID(c, "quizId")
	if !ok {
		return
	}

	var req model.UpdateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.UpdateQuiz(c.Request.Context(), quizID, req.Patch())
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, quiz)
}

// AddQuestion godoc
// POST /api/v1/quiz/:quizId/questions
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	quizID, ok := paramID(c, "quizId")
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.quizService.AddQuestion(c.Request.Context(), quizID, service.NewQuestion{
		Type:   model.QuestionType(req.Type),
		Text:   req.Text,
		Points: req.Points,
	})
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, question)
}

// UpdateQuestion godoc
// PATCH /api/v1/questions/:questionId
func (h *QuizHandler) UpdateQuestion(c *gin.Context) {
	questionID, ok := paramID(c, "questionId")
	if !ok {
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.quizService.UpdateQuestion(c.Request.Context(), questionID, req.Patch())
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, question)
}

// DeleteQuestion godoc
// DELETE /api/v1/questions/:questionId
func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	questionID, ok := paramID(c, "questionId")
	if !ok {
		return
	}

	if err := h.quizService.DeleteQuestion(c.Request.Context(), questionID); err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// AddOption godoc
// POST /api/v1/questions/:questionId/options
func (h *QuizHandler) AddOption(c *gin.Context) {
	questionID, ok := paramID(c, "questionId")
	if !ok {
		return
	}

	var req model.AddOptionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	option, err := h.quizService.AddOption(c.Request.Context(), questionID, service.NewOption{
		Text:      req.Text,
		IsCorrect: req.IsCorrect,
	})
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, option)
}

// UpdateOption godoc
// PATCH /api/v1/options/:optionId
func (h *QuizHandler) UpdateOption(c *gin.Context) {
	optionID, ok := paramID(c, "optionId")
	if !ok {
		return
	}

	var req model.UpdateOptionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	option, err := h.quizService.UpdateOption(c.Request.Context(), optionID, req.Patch())
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, option)
}

// DeleteOption godoc
// DELETE /api/v1/options/:optionId
func (h *QuizHandler) DeleteOption(c *gin.Context) {
	optionID, ok := paramID(c, "optionId")
	if !ok {
		return
	}

	if err := h.quizService.DeleteOption(c.Request.Context(), optionID); err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// ReorderQuestions godoc
// PATCH /api/v1/quiz/:quizId/questions/reorder
// Body: {"items": [{"id": 1, "rank": 2}, ...]} covering every question of the quiz.
func (h *QuizHandler) ReorderQuestions(c *gin.Context) {
	quizID, ok := paramID(c, "quizId")
	if !ok {
		return
	}

	var req model.ReorderRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.orderingService.ReorderQuestions(c.Request.Context(), quizID, req.Items); err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"items": service.SortByRank(req.Items)})
}

// ReorderOptions godoc
// PATCH /api/v1/questions/:questionId/options/reorder
func (h *QuizHandler) ReorderOptions(c *gin.Context) {
	questionID, ok := paramID(c, "questionId")
	if !ok {
		return
	}

	var req model.ReorderRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.orderingService.ReorderOptions(c.Request.Context(), questionID, req.Items); err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"items": service.SortByRank(req.Items)})
}

// SetPublished godoc
// PATCH /api/v1/quiz/:quizId/publish
// Body: {"isPublished": true|false}
func (h *QuizHandler) SetPublished(c *gin.Context) {
	quizID, ok := paramID(c, "quizId")
	if !ok {
		return
	}

	var req model.PublishRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.SetPublished(c.Request.Context(), quizID, *req.IsPublished)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, quiz)
}

// GetLearnerView godoc
// GET /api/v1/modules/:moduleId/quiz
// Published quiz without correctness flags.
func (h *QuizHandler) GetLearnerView(c *gin.Context) {
	moduleID, ok := paramID(c, "moduleId")
	if !ok {
		return
	}

	view, err := h.quizService.GetLearnerView(c.Request.Context(), moduleID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// GetStaffView godoc
// GET /api/v1/modules/:moduleId/quiz/admin
func (h *QuizHandler) GetStaffView(c *gin.Context) {
	moduleID, ok := paramID(c, "moduleId")
	if !ok {
		return
	}

	view, err := h.quizService.GetStaffView(c.Request.Context(), moduleID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}
