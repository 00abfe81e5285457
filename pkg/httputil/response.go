package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carelink/portal-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, NewSuccessResponse(data))
}

// RespondWithError maps application errors to HTTP statuses
func RespondWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	if appErr, ok := errors.As(err); ok {
		status = statusFor(appErr.Code)
		message = appErr.Message
	}

	_ = c.Error(err)
	c.JSON(status, NewErrorResponse(message))
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrValidation:
		return http.StatusBadRequest
	case errors.ErrInvalidTransition:
		return http.StatusUnprocessableEntity
	case errors.ErrSlotUnavailable, errors.ErrConflict:
		return http.StatusConflict
	case errors.ErrUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrForbidden:
		return http.StatusForbidden
	case errors.ErrStore, errors.ErrInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
