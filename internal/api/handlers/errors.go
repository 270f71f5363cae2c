package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/service"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/tracing"
)

// ErrorResponse defines the structure of an error response
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error represents an API error
type Error struct {
	Message    string
	StatusCode int
	Code       string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Common API errors
var (
	ErrInvalidRequest     = &Error{Message: "Invalid request", StatusCode: http.StatusBadRequest, Code: "INVALID_REQUEST"}
	ErrNotFound           = &Error{Message: "Resource not found", StatusCode: http.StatusNotFound, Code: "NOT_FOUND"}
	ErrInvalidState       = &Error{Message: "Invalid state", StatusCode: http.StatusConflict, Code: "INVALID_STATE"}
	ErrConflict           = &Error{Message: "Resource already exists", StatusCode: http.StatusConflict, Code: "CONFLICT"}
	ErrValidation         = &Error{Message: "Validation error", StatusCode: http.StatusBadRequest, Code: "VALIDATION_ERROR"}
	ErrServiceUnavailable = &Error{Message: "Service unavailable", StatusCode: http.StatusServiceUnavailable, Code: "SERVICE_UNAVAILABLE"}
	ErrInternalServer     = &Error{Message: "Internal server error", StatusCode: http.StatusInternalServerError, Code: "INTERNAL_ERROR"}
)

// NewValidationError creates a new validation error with a custom message
func NewValidationError(message string) *Error {
	return &Error{
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Code:       ErrValidation.Code,
	}
}

// WriteError writes the response matching a service error. Unknown errors
// are logged and reported as internal errors.
func WriteError(c *gin.Context, err error) {
	var apiError *Error
	if !errors.As(err, &apiError) {
		apiError = fromService(err)
	}

	if apiError.StatusCode >= http.StatusInternalServerError {
		tracing.NoticeError(c.Request.Context(), err)
		log.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
	}

	c.AbortWithStatusJSON(apiError.StatusCode, ErrorResponse{
		Message: apiError.Message,
		Code:    apiError.Code,
	})
}

func fromService(err error) *Error {
	var base *Error
	switch {
	case errors.Is(err, service.ErrNotFound):
		base = ErrNotFound
	case errors.Is(err, service.ErrInvalidState):
		base = ErrInvalidState
	case errors.Is(err, service.ErrAlreadyExists):
		base = ErrConflict
	case errors.Is(err, service.ErrValidation):
		base = ErrValidation
	case errors.Is(err, service.ErrUnavailable):
		base = ErrServiceUnavailable
	default:
		return ErrInternalServer
	}
	return &Error{Message: err.Error(), StatusCode: base.StatusCode, Code: base.Code}
}
