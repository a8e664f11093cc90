package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Account Business Logic (ACC) ----

func ErrOperationNotFound() *AppError {
	return New("ACC_001", "Operation does not exist", http.StatusNotFound)
}

func ErrUnrefundableOperation() *AppError {
	return New("ACC_002", "Unrefundable operation", http.StatusUnprocessableEntity)
}

func ErrUnknownCurrency(currency string) *AppError {
	return New("ACC_003", fmt.Sprintf("Unknown currency %s", currency), http.StatusUnprocessableEntity)
}

func ErrTransferDelivery(err error) *AppError {
	return Wrap("ACC_004", "Transfer could not be delivered to the recipient", http.StatusBadGateway, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("ACC_005", message, http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- System & Infrastructure (SYS) ----

func ErrStorageFailure(err error) *AppError {
	return Wrap("SYS_001", "Storage failure", http.StatusInternalServerError, err)
}

func ErrCodecFailure(err error) *AppError {
	return Wrap("SYS_002", "Value encoding failure", http.StatusInternalServerError, err)
}

func ErrEngineShutdown() *AppError {
	return New("SYS_003", "Account engine is shutting down", http.StatusServiceUnavailable)
}

// InternalError wraps an internal error as a SYS_000 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_000", "Internal server error", http.StatusInternalServerError, err)
}
