// Package response renders the two wire envelopes used by the API:
// a validation envelope for 400s produced at the boundary, and an
// error envelope for everything the engines reject.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cee-connect/backend/pkg/apperr"
)

// ValidationBody is the envelope for request validation failures (400).
type ValidationBody struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// ErrorBody is the envelope for engine and authorization errors.
type ErrorBody struct {
	State      string `json:"state"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	StatusCode int    `json:"statusCode"`
}

// OK sends a 200 JSON response.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 JSON response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Validation sends a 400 with the validation envelope.
func Validation(c *gin.Context, message string, errs ...string) {
	c.JSON(http.StatusBadRequest, ValidationBody{Success: false, Message: message, Errors: errs})
}

// Error sends the error envelope with the given status.
func Error(c *gin.Context, status int, message, details string) {
	c.JSON(status, ErrorBody{State: "Error", Message: message, Details: details, StatusCode: status})
}

// AbortError sends the error envelope and aborts the middleware chain.
func AbortError(c *gin.Context, status int, message, details string) {
	c.AbortWithStatusJSON(status, ErrorBody{State: "Error", Message: message, Details: details, StatusCode: status})
}

// AppError maps an application error to its envelope. Validation kinds use
// the validation envelope; internal errors are logged and returned generic.
func AppError(c *gin.Context, logger *zap.Logger, err error) {
	e := apperr.From(err)
	if e.Kind == apperr.KindInternal {
		if logger != nil {
			logger.Error("internal error",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
		}
		Error(c, http.StatusInternalServerError, "error interno del servidor", "")
		return
	}
	if e.Kind == apperr.KindValidation {
		Validation(c, e.Message)
		return
	}
	Error(c, e.Kind.HTTPStatus(), e.Message, e.Details)
}
