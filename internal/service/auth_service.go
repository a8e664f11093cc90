package service

import (
	"context"
	"time"

	"github.com/oliveigah/banking-prototype/internal/core/ports"
	"github.com/oliveigah/banking-prototype/pkg/apperror"
)

// AuthServiceImpl exchanges the configured operator access key for
// account-scoped tokens.
type AuthServiceImpl struct {
	accessKeyHash string
	hashSvc       ports.HashService
	tokenSvc      ports.TokenService
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(accessKeyHash string, hashSvc ports.HashService, tokenSvc ports.TokenService) *AuthServiceImpl {
	return &AuthServiceImpl{
		accessKeyHash: accessKeyHash,
		hashSvc:       hashSvc,
		tokenSvc:      tokenSvc,
	}
}

// IssueToken verifies the access key against the configured hash and returns
// a token scoped to the account.
func (s *AuthServiceImpl) IssueToken(_ context.Context, accountID int64, accessKey string) (string, time.Time, error) {
	if s.accessKeyHash == "" {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}
	ok, err := s.hashSvc.Verify(accessKey, s.accessKeyHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(err)
	}
	if !ok {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiresAt, err := s.tokenSvc.Generate(accountID)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(err)
	}
	return token, expiresAt, nil
}
