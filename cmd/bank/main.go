package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oliveigah/banking-prototype/config"
	httpHandler "github.com/oliveigah/banking-prototype/internal/adapter/http/handler"
	"github.com/oliveigah/banking-prototype/internal/app"
	"github.com/oliveigah/banking-prototype/internal/service"
	"github.com/oliveigah/banking-prototype/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Int("storage_workers", cfg.Storage.Workers).
		Dur("idle_timeout", cfg.Actor.IdleTimeout).
		Msg("Starting banking prototype")

	// Wire the engine: storage pool, rates refresher, registry
	engine, err := app.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start the account engine")
	}
	defer engine.Close()

	// Auth services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry, cfg.Auth.Issuer)
	authSvc := service.NewAuthService(cfg.Auth.AccessKeyHash, hashSvc, tokenSvc)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:    authSvc,
		AccountSvc: engine.Engine,
		TokenSvc:   tokenSvc,
		Logger:     log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
}
