package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wenwu/saas-platform/directory-service/internal/logger"
	"github.com/wenwu/saas-platform/directory-service/internal/service"
)

// Error codes carried in the response envelope
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeInvalidState       = "INVALID_STATE"
	ErrCodeNoEligibleProvider = "NO_ELIGIBLE_PROVIDER"
	ErrCodeDuplicateEntry     = "DUPLICATE_ENTRY"
)

// Response is the envelope returned by every endpoint
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{Success: false, Error: &ErrorInfo{Code: code, Message: message}})
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Error: &ErrorInfo{Code: code, Message: message}})
}

// classify maps a service error kind to status and code
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, ErrCodeValidationFailed
	case errors.Is(err, service.ErrInvalidState):
		return http.StatusConflict, ErrCodeInvalidState
	case errors.Is(err, service.ErrNoEligibleProvider):
		return http.StatusUnprocessableEntity, ErrCodeNoEligibleProvider
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, ErrCodeDuplicateEntry
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrCodeUnauthorized
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// respondServiceError writes err with its mapped status. Internal errors are
// logged and replaced with a generic message.
func respondServiceError(c *gin.Context, log *zap.Logger, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(c.Request.Context(), log).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		respondError(c, status, code, "internal server error")
		return
	}
	respondError(c, status, code, err.Error())
}
