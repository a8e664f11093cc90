package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/oliveigah/banking-prototype/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SuccessResponse is the standard success envelope. Business denials travel
// here too: a denied operation is a recorded ledger outcome, not an error.
type SuccessResponse struct {
	Data      any    `json:"data"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the standard error envelope. ErrorCode always carries one
// of the apperror taxonomy codes (ACC_*, AUTH_*, SYS_*).
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// OK sends a 200 response with data.
func OK(c *gin.Context, data any) {
	requestID, at := stamp(c)
	c.JSON(http.StatusOK, SuccessResponse{
		Data:      data,
		RequestID: requestID,
		Timestamp: at,
	})
}

// Created sends a 201 response with data.
func Created(c *gin.Context, data any) {
	requestID, at := stamp(c)
	c.JSON(http.StatusCreated, SuccessResponse{
		Data:      data,
		RequestID: requestID,
		Timestamp: at,
	})
}

// Error renders err through the engine's error taxonomy. Anything that is not
// already an *apperror.AppError is wrapped as an internal error first, so the
// envelope always carries a stable code and never leaks the cause.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.InternalError(err)
	}

	requestID, at := stamp(c)
	c.JSON(appErr.HTTPStatus, ErrorResponse{
		ErrorCode: appErr.Code,
		Message:   appErr.Message,
		RequestID: requestID,
		Timestamp: at,
	})
}

// stamp resolves the request id bound by the middleware, generating one for
// responses emitted outside the request pipeline, plus the response timestamp.
func stamp(c *gin.Context) (string, string) {
	at := time.Now().UTC().Format(time.RFC3339)
	if id, ok := c.Get("request_id"); ok {
		if s, ok := id.(string); ok {
			return s, at
		}
	}
	return uuid.New().String(), at
}
