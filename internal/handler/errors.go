package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/zhakasov-bm/lms-backend/internal/response"
	"github.com/zhakasov-bm/lms-backend/internal/service"
)

// failWithError maps a service error onto the response envelope. Anything
// outside the service error classes is logged and reported as internal.
func failWithError(c *gin.Context, log zerolog.Logger, err error) {
	var pubErr *service.PublishError
	switch {
	case errors.As(err, &pubErr):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrPublishRejected, map[string]string{
			"rank":   strconv.Itoa(pubErr.Rank),
			"detail": err.Error(),
		})

	case errors.Is(err, service.ErrNotFound):
		response.FailWithDetail(c, http.StatusNotFound, response.ErrNotFound, err.Error())

	case errors.Is(err, service.ErrNotAttemptOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotAttemptOwner)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusForbidden, response.ErrAlreadySubmitted)
	case errors.Is(err, service.ErrAttemptLimitReached):
		response.Fail(c, http.StatusForbidden, response.ErrAttemptLimit)
	case errors.Is(err, service.ErrForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)

	case errors.Is(err, service.ErrNoFieldsToUpdate):
		response.Fail(c, http.StatusBadRequest, response.ErrNoFieldsToUpdate)
	case errors.Is(err, service.ErrInvalidReorder):
		response.FailWithDetail(c, http.StatusBadRequest, response.ErrInvalidReorder, err.Error())
	case errors.Is(err, service.ErrAttemptSubmitted):
		response.Fail(c, http.StatusBadRequest, response.ErrAttemptSubmitted)
	case errors.Is(err, service.ErrQuizEmpty):
		response.Fail(c, http.StatusBadRequest, response.ErrQuizEmpty)
	case errors.Is(err, service.ErrInvalidOption):
		response.FailWithDetail(c, http.StatusBadRequest, response.ErrInvalidAnswer, err.Error())
	case errors.Is(err, service.ErrValidation):
		response.FailWithDetail(c, http.StatusBadRequest, response.ErrValidation, err.Error())

	default:
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// paramID parses a positive integer path parameter. On failure it writes the
// error response and returns false.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
