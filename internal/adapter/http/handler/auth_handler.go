package handler

import (
	"github.com/oliveigah/banking-prototype/internal/adapter/http/dto"
	"github.com/oliveigah/banking-prototype/internal/core/ports"
	"github.com/oliveigah/banking-prototype/pkg/apperror"
	"github.com/oliveigah/banking-prototype/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles token issuance.
type AuthHandler struct {
	authSvc ports.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc ports.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Token handles POST /api/v1/auth/token.
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	token, expiresAt, err := h.authSvc.IssueToken(c.Request.Context(), req.AccountID, req.AccessKey)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.TokenResponse{Token: token, ExpiresAt: expiresAt})
}
