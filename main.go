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

	"github.com/isdelr/slowmind-be/internal/api"
	"github.com/isdelr/slowmind-be/internal/auth"
	"github.com/isdelr/slowmind-be/internal/config"
	"github.com/isdelr/slowmind-be/internal/database"
	"github.com/isdelr/slowmind-be/internal/logger"
	"github.com/isdelr/slowmind-be/internal/services"
	"github.com/isdelr/slowmind-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Provisional logger so configuration warnings are formatted; APP_ENV
	// may still change once .env is read.
	logger.Init(os.Getenv("APP_ENV") == "production")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.IsProduction())

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	if _, err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to bring database schema up to date")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Set up services
	tokens := auth.NewTokenService(cfg.JWTSecret)
	userService, err := services.NewUserService(db, cfg.BcryptCost, cfg.Timezone)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize user service")
	}
	quoteService := services.NewQuoteService(db, cfg.Timezone)
	meditationService := services.NewMeditationService(db, userService, cfg.Timezone)
	communityService := services.NewCommunityService(db, hub)

	// Set up router
	router := api.NewRouter(cfg, db, hub, tokens, userService, quoteService, meditationService, communityService)

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.AppEnv).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
