package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func traceID(c *gin.Context) string {
	return c.GetString("trace_id")
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
	})
}

// HandleServiceError maps sentinel errors to HTTP responses. Upstream error
// text never reaches the client; internal failures are attached to the gin
// context so the request logger records them.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidTravelRequest):
		RespondError(c, http.StatusNotFound, "No active travel request, start planning first")
	case errors.Is(err, ErrIncompleteRequest):
		RespondError(c, http.StatusConflict, "Not all questions are answered yet")
	case errors.Is(err, ErrInvalidInput):
		RespondError(c, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, ErrAlternativesExhausted):
		RespondError(c, http.StatusTooManyRequests, "No more alternatives for this search, start a new one")
	case errors.Is(err, ErrExternalService):
		RespondError(c, http.StatusServiceUnavailable, "Recommendation service is temporarily unavailable")
	case errors.Is(err, ErrAnalyticsDisabled):
		RespondError(c, http.StatusServiceUnavailable, "Analytics storage is not configured")
	case errors.Is(err, ErrSessionStore), errors.Is(err, ErrDatabaseError):
		_ = c.Error(err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	default:
		_ = c.Error(fmt.Errorf("unknown error: %w", err))
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
