package util

import (
	"errors"
	"net/http"

	"platefeed/internal/model"

	"github.com/gin-gonic/gin"
)

// SuccessResponse writes a standard success envelope
func SuccessResponse(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// ErrorResponse writes a standard error envelope
func ErrorResponse(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
		"data":    data,
	})
}

func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, message, nil)
}

func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, message, nil)
}

func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, message, nil)
}

func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, message, nil)
}

// FailFromError maps a service error onto an HTTP status via the error taxonomy
func FailFromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrTagNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, model.ErrUnauthorized):
		Forbidden(c, err.Error())
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, model.ErrInvalidID):
		BadRequest(c, err.Error())
	default:
		ErrorResponse(c, http.StatusInternalServerError, "internal server error", nil)
	}
}
