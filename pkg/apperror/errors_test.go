package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("ACC_002", "Unrefundable operation", http.StatusUnprocessableEntity),
			expected: "[ACC_002] Unrefundable operation",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "Storage failure", http.StatusInternalServerError, fmt.Errorf("disk full")),
			expected: "[SYS_001] Storage failure: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := ErrStorageFailure(inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("ACC_005", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestAccountErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"OperationNotFound", ErrOperationNotFound(), "ACC_001", 404},
		{"UnrefundableOperation", ErrUnrefundableOperation(), "ACC_002", 422},
		{"UnknownCurrency", ErrUnknownCurrency("XYZ"), "ACC_003", 422},
		{"TransferDelivery", ErrTransferDelivery(fmt.Errorf("timeout")), "ACC_004", 502},
		{"Validation", Validation("amount must be positive"), "ACC_005", 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestAuthAndSystemErrors(t *testing.T) {
	assert.Equal(t, "AUTH_001", ErrInvalidCredentials().Code)
	assert.Equal(t, "AUTH_002", ErrInvalidToken().Code)
	assert.Equal(t, "SYS_001", ErrStorageFailure(fmt.Errorf("io")).Code)
	assert.Equal(t, "SYS_002", ErrCodecFailure(fmt.Errorf("marshal")).Code)
	assert.Equal(t, "SYS_003", ErrEngineShutdown().Code)
	assert.Equal(t, http.StatusServiceUnavailable, ErrEngineShutdown().HTTPStatus)
}

func TestErrUnknownCurrency_Message(t *testing.T) {
	assert.Equal(t, "Unknown currency XYZ", ErrUnknownCurrency("XYZ").Message)
}
