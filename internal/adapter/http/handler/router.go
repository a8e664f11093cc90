package handler

import (
	"net/http"

	"github.com/oliveigah/banking-prototype/internal/adapter/http/middleware"
	"github.com/oliveigah/banking-prototype/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc    ports.AuthService
	AccountSvc ports.AccountService
	TokenSvc   ports.TokenService
	Logger     zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	v1.POST("/auth/token", authHandler.Token)

	// --- Token-authenticated account routes ---
	accountHandler := NewAccountHandler(deps.AccountSvc)
	accounts := v1.Group("/accounts", middleware.BearerAuth(deps.TokenSvc))
	{
		accounts.POST("/deposit", accountHandler.Deposit)
		accounts.POST("/withdraw", accountHandler.Withdraw)
		accounts.POST("/card", accountHandler.CardTransaction)
		accounts.POST("/transfer", accountHandler.Transfer)
		accounts.POST("/transfer/split", accountHandler.SplitTransfer)
		accounts.POST("/refund", accountHandler.Refund)
		accounts.POST("/exchange", accountHandler.Exchange)
		accounts.GET("/balance", accountHandler.Balance)
		accounts.GET("/balances", accountHandler.Balances)
		accounts.GET("/operations/:id", accountHandler.Operation)
		accounts.GET("/operations", accountHandler.Operations)
	}

	return r
}
