package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2HashService_HashAndVerify(t *testing.T) {
	svc := NewArgon2HashService()

	hash, err := svc.Hash("operator-key")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := svc.Verify("operator-key", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Verify("wrong-key", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2HashService_HashesAreSalted(t *testing.T) {
	svc := NewArgon2HashService()

	first, err := svc.Hash("operator-key")
	require.NoError(t, err)
	second, err := svc.Hash("operator-key")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestArgon2HashService_Verify_InvalidFormat(t *testing.T) {
	svc := NewArgon2HashService()

	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not a hash", "plaintext"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify("key", tt.hash)
			assert.Error(t, err)
		})
	}
}
