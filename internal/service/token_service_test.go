package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokenService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTTokenService("test-secret", time.Hour, "banking-prototype")

	token, expiresAt, err := svc.Generate(42)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	accountID, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), accountID)
}

func TestJWTTokenService_RejectsWrongSecret(t *testing.T) {
	svc := NewJWTTokenService("secret-a", time.Hour, "banking-prototype")
	other := NewJWTTokenService("secret-b", time.Hour, "banking-prototype")

	token, _, err := svc.Generate(42)
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTTokenService("test-secret", -time.Minute, "banking-prototype")

	token, _, err := svc.Generate(42)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_RejectsGarbage(t *testing.T) {
	svc := NewJWTTokenService("test-secret", time.Hour, "banking-prototype")

	_, err := svc.Validate("not-a-token")
	assert.Error(t, err)
}
