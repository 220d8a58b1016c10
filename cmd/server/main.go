package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"autodiag-backend/internal/config"
	"autodiag-backend/internal/database"
	"autodiag-backend/internal/handlers"
	"autodiag-backend/internal/middleware"
	"autodiag-backend/internal/models"
	"autodiag-backend/internal/repository"
	"autodiag-backend/internal/router"
	"autodiag-backend/internal/services"
	"autodiag-backend/internal/websocket"
)

func main() {
	log.Println("🚗 Starting AutoDiag Backend...")

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
	userRepo := repository.NewUserRepo(pool)
	reportRepo := repository.NewReportRepo(pool)
	chatRepo := repository.NewChatRepo(pool)
	searchRepo := repository.NewSearchRepo(pool)
	postRepo := repository.NewPostRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiConcurrentReqs)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	log.Println("✓ Gemini client initialized")

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, redisClients.Store, jwtAuth, cfg.GoogleClientID)
	historyService := services.NewHistoryService(reportRepo, chatRepo, cfg.HistoryLimit)
	searchService := services.NewSearchService(searchRepo, cfg.HistoryLimit,
		time.Duration(cfg.SearchFeedbackDelayMs)*time.Millisecond)

	// Chat stream events go through Redis pub/sub so the WebSocket hub can
	// reach the user's connections regardless of which one is local.
	publish := func(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
		data, err := json.Marshal(msg)
		if err != nil {
			return
		}
		redisClients.Store.Publish(ctx, websocket.ChannelPrefix+userID.String(), string(data))
	}
	chatManager := services.NewChatManager(
		geminiService.StartMechanicChat,
		publish,
		time.Duration(cfg.ChatSessionTTLMinutes)*time.Minute,
	)
	log.Println("✓ Chat session manager started")

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	reportHandler := handlers.NewReportHandler(geminiService, searchService)
	chatHandler := handlers.NewChatHandler(chatManager)
	historyHandler := handlers.NewHistoryHandler(historyService, searchService)
	communityHandler := handlers.NewCommunityHandler(postRepo, cfg.HistoryLimit)
	userHandler := handlers.NewUserHandler(authService)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		reportHandler,
		chatHandler,
		historyHandler,
		communityHandler,
		userHandler,
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

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ AutoDiag Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
