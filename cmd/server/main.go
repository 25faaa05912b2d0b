package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"murajaa-backend/internal/config"
	"murajaa-backend/internal/database"
	"murajaa-backend/internal/handlers"
	"murajaa-backend/internal/middleware"
	"murajaa-backend/internal/repository"
	"murajaa-backend/internal/router"
	"murajaa-backend/internal/session"
	"murajaa-backend/internal/websocket"
)

func main() {
	log.Println("🚀 Starting Murajaa Review Engine...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	deckRepo := repository.NewDeckRepo(pool)
	reviewRepo := repository.NewReviewRepo(pool)
	settingsRepo := repository.NewSettingsRepo(pool)

	// ──── Initialize Session Manager ────
	clock := session.SystemClock()
	notifier := session.NewRedisNotifier(redisClients.Cache)
	sessionManager := session.NewManager(
		reviewRepo,
		clock,
		notifier,
		time.Duration(cfg.SessionTTLMinutes)*time.Minute,
	)
	sessionManager.StartEviction()
	log.Println("✓ Session manager started")

	// ──── Initialize Handlers ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	dueCounts := handlers.NewDueCountCache(reviewRepo, redisClients.Cache)
	deckHandler := handlers.NewDeckHandler(deckRepo, reviewRepo, dueCounts, clock)
	reviewHandler := handlers.NewReviewHandler(reviewRepo, clock, cfg.DefaultSessionLimit, cfg.MaxSessionLimit)
	sessionHandler := handlers.NewSessionHandler(sessionManager, cfg.DefaultSessionLimit, cfg.MaxSessionLimit)
	settingsHandler := handlers.NewSettingsHandler(settingsRepo)

	// ──── Step 5: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 6: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		deckHandler,
		reviewHandler,
		sessionHandler,
		settingsHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		sessionManager.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Murajaa Review Engine ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
