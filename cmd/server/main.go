package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vidshelf-backend/internal/config"
	"vidshelf-backend/internal/database"
	"vidshelf-backend/internal/handlers"
	"vidshelf-backend/internal/models"
	"vidshelf-backend/internal/router"
	"vidshelf-backend/internal/services"
	"vidshelf-backend/internal/websocket"
)

func main() {
	log.Println("🚀 Starting Vidshelf Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	logger := newLogger(cfg)

	// ──── Step 2: Initialize Redis Client (optional) ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Println("✓ Redis connected")
	} else {
		log.Println("• Redis not configured, state updates stay in-process")
	}

	// ──── Step 3: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClient)
	log.Println("✓ WebSocket hub started")

	// ──── Step 4: Initialize Validator ────
	var validator services.Validator
	if cfg.YouTubeAPIKey != "" {
		dataAPI, err := services.NewDataAPIValidator(context.Background(), cfg.YouTubeAPIKey)
		if err != nil {
			log.Fatalf("✗ YouTube Data API client initialization failed: %v", err)
		}
		validator = dataAPI
		log.Println("✓ Validating videos with the YouTube Data API")
	} else {
		validator = services.NewOEmbedValidator(cfg.OEmbedEndpoint, nil)
		log.Printf("✓ Validating videos with oEmbed (%s)", cfg.OEmbedEndpoint)
	}

	policy := models.CollapseFailures
	if cfg.DistinguishValidationFailures {
		policy = models.DistinguishFailures
	}

	// ──── Initialize Services ────
	sessions := services.NewSessionStore(services.SessionConfig{
		Validator:         validator,
		Publisher:         wsHub,
		ValidationTimeout: cfg.ValidationTimeout,
		FailurePolicy:     policy,
		SeedDefaultVideo:  cfg.SeedDefaultVideo,
		Logger:            logger,
		MaxSessions:       cfg.MaxSessions,
		IdleTTL:           cfg.SessionIdleTTL,
	})

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	sessions.StartJanitor(janitorCtx, time.Minute)
	youtubeService := services.NewYouTubeService()

	// ──── Initialize Handlers ────
	sessionHandler := handlers.NewSessionHandler(sessions)
	youtubeHandler := handlers.NewYouTubeHandler(youtubeService)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(
		sessionHandler,
		youtubeHandler,
		sessions,
		wsHub,
		cfg.FrontendURL,
		cfg.IsDevelopment(),
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Adds wait on remote validation.
		WriteTimeout: cfg.ValidationTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		stopJanitor()
		wsHub.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Vidshelf Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/sessions/{sessionID}/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(handler)
}
