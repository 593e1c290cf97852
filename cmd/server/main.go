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

	"quantumfield-backend/internal/config"
	"quantumfield-backend/internal/database"
	"quantumfield-backend/internal/handlers"
	"quantumfield-backend/internal/middleware"
	"quantumfield-backend/internal/router"
	"quantumfield-backend/internal/services"
	"quantumfield-backend/internal/session"
	"quantumfield-backend/internal/websocket"
	"quantumfield-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Quantum Field Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 3: Initialize Session Store ────
	sessionStore, err := session.NewStore(cfg.SessionCapacity)
	if err != nil {
		log.Fatalf("✗ Session store initialization failed: %v", err)
	}
	log.Printf("✓ Session store ready (capacity %d)", cfg.SessionCapacity)

	// ──── Initialize Services ────
	chatService := services.NewChatService(
		cfg.ChatAPIURL,
		cfg.ChatModel,
		cfg.ChatAPIKey,
		time.Duration(cfg.ChatTimeoutSec)*time.Second,
	)
	optimizerService := services.NewOptimizerService(redisClients.Queue)
	fieldDataService := services.NewFieldDataService(cfg.SpaceWeatherURL, cfg.GeomagURL)
	fileParseService := services.NewFileParseService()

	// ──── Initialize Handlers ────
	sessionHandler := handlers.NewSessionHandler(sessionStore, fileParseService)
	optimizeHandler := handlers.NewOptimizeHandler(sessionStore, optimizerService, fieldDataService, redisClients.Queue)
	chatHandler := handlers.NewChatHandler(sessionStore, chatService)

	// ──── Step 4: Start Optimization Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		optimizerService,
		fieldDataService,
		sessionStore,
		cfg.OptimizerWorkers,
	)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.OptimizerWorkers)

	// ──── Step 5: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, sessionStore)
	log.Println("✓ WebSocket hub started")

	// ──── Step 6: Start HTTP Server ────
	sessionLimiter := middleware.NewRateLimiter(redisClients.Queue, 30, time.Minute)

	r := router.New(
		sessionLimiter,
		sessionHandler,
		optimizeHandler,
		chatHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Quantum Field Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
