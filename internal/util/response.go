package util

import (
	"errors"
	"lingo_edu_backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the envelope every handler writes.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorDetail struct {
	Reason    string `json:"reason"`
	Retryable bool   `json:"retryable"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func ErrorWithDetail(c *gin.Context, code int, message string, detail ErrorDetail) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Data:    detail,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err), zap.String("path", c.FullPath()))
	InternalServerError(c)
}

// RespondError maps engine errors onto HTTP statuses.
func RespondError(c *gin.Context, err error) {
	var invalid *InvalidAssessmentError
	switch {
	case errors.Is(err, ErrAttemptLimitExceeded):
		ErrorWithDetail(c, http.StatusForbidden, err.Error(), ErrorDetail{Reason: "attempt_limit_exceeded"})
	case errors.Is(err, ErrNotAttemptOwner):
		ErrorWithDetail(c, http.StatusForbidden, err.Error(), ErrorDetail{Reason: "forbidden"})
	case errors.Is(err, ErrAssessmentNotFound), errors.Is(err, ErrAttemptNotFound), errors.Is(err, ErrLevelNotFound):
		ErrorWithDetail(c, http.StatusNotFound, err.Error(), ErrorDetail{Reason: "not_found"})
	case errors.Is(err, ErrQuestionNotInAssessment), errors.Is(err, ErrAnswerTypeMismatch), errors.Is(err, ErrUnsupportedMedia):
		ErrorWithDetail(c, http.StatusBadRequest, err.Error(), ErrorDetail{Reason: "invalid_answer"})
	case errors.As(err, &invalid):
		logger.Log.Warn("Invalid assessment definition", zap.Error(err))
		ErrorWithDetail(c, http.StatusUnprocessableEntity, err.Error(), ErrorDetail{Reason: "invalid_assessment"})
	case IsPersistenceError(err):
		logger.Log.Error("Persistence failure", zap.Error(err), zap.String("path", c.FullPath()))
		ErrorWithDetail(c, http.StatusServiceUnavailable, "Temporarily unavailable, please retry", ErrorDetail{Reason: "persistence_failure", Retryable: true})
	default:
		LogInternalError(c, err)
	}
}
