package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// APIError is the error member of the response envelope
type APIError struct {
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// Envelope wraps every response body.
// Data is set on success, Error only on failures, Message always.
type Envelope struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
	Error   *APIError   `json:"error,omitempty"`
}

// NewAPIError creates a new APIError
func NewAPIError(code string) *APIError {
	return &APIError{Code: code}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(code string, details interface{}) *APIError {
	return &APIError{Code: code, Details: details}
}

// RespondWithError sends an error envelope and aborts the chain
func RespondWithError(c *gin.Context, statusCode int, message string, err *APIError) {
	c.AbortWithStatusJSON(statusCode, Envelope{Message: message, Error: err})
}

// Respond sends a success envelope
func Respond(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Envelope{Data: data, Message: message})
}

// OK sends a 200 response
func OK(c *gin.Context, message string, data interface{}) {
	Respond(c, http.StatusOK, message, data)
}

// Created sends a 201 response
func Created(c *gin.Context, message string, data interface{}) {
	Respond(c, http.StatusCreated, message, data)
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, message, NewAPIError(ErrCodeUnauthorized))
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	RespondWithError(c, http.StatusForbidden, message, NewAPIError(ErrCodeForbidden))
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, message, NewAPIError(ErrCodeNotFound))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, message, NewAPIError(ErrCodeValidation))
}

// BadRequestWithDetails sends a 400 response with details
func BadRequestWithDetails(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, message, NewAPIErrorWithDetails(ErrCodeValidation, details))
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	if message == "" {
		message = "Resource conflict"
	}
	RespondWithError(c, http.StatusConflict, message, NewAPIError(ErrCodeConflict))
}

// InternalError sends a 500 response. The cause is only exposed outside release mode.
func InternalError(c *gin.Context, message string, cause error) {
	if message == "" {
		message = "Internal server error"
	}
	apiErr := NewAPIError(ErrCodeInternal)
	if cause != nil && gin.Mode() != gin.ReleaseMode {
		apiErr.Details = cause.Error()
	}
	RespondWithError(c, http.StatusInternalServerError, message, apiErr)
}
