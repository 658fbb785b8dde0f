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

	"chatbot-backend/internal/assistant"
	"chatbot-backend/internal/config"
	"chatbot-backend/internal/database"
	"chatbot-backend/internal/handlers"
	"chatbot-backend/internal/middleware"
	"chatbot-backend/internal/repository"
	"chatbot-backend/internal/router"
	"chatbot-backend/internal/services"
	"chatbot-backend/internal/websocket"
	"chatbot-backend/internal/worker"
)

// Extracted document text is capped so it fits comfortably in a prompt.
const maxDocumentChars = 200_000

func main() {
	log.Println("🚀 Starting chatbot backend...")
	ctx := context.Background()

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(ctx, pool, os.DirFS(cfg.MigrationsDir)); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	chatRepo := repository.NewChatRepo(pool)
	messageRepo := repository.NewMessageRepo(pool)
	documentRepo := repository.NewDocumentRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Step 5: Initialize Model Backends ────
	registry, err := assistant.NewRegistry(ctx, assistant.RegistryConfig{
		GeminiAPIKey:      cfg.GeminiAPIKey,
		GeminiConcurrency: cfg.GeminiConcurrentReqs,
		OllamaHost:        cfg.OllamaHost,
		OllamaCloudHost:   cfg.OllamaCloudHost,
		OllamaCloudAPIKey: cfg.OllamaCloudAPIKey,
	})
	if err != nil {
		log.Fatalf("✗ Model backend initialization failed: %v", err)
	}
	defer registry.Close()
	log.Printf("✓ Model backends ready (ollama: %s, ollama cloud: %v, gemini: %v)",
		cfg.OllamaHost,
		registry.Available(assistant.FamilyOllama, true),
		registry.Available(assistant.FamilyGemini, true),
	)

	catalog, err := assistant.LoadCatalog()
	if err != nil {
		log.Fatalf("✗ Model catalog failed to load: %v", err)
	}

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, redisClients.Queue, jwtAuth)
	notifier := services.NewNotifier(redisClients.Queue)
	fileExtractService := services.NewFileExtractService(maxDocumentChars)

	systemPrompt := ""
	if cfg.UseSystemPrompt {
		systemPrompt = assistant.DefaultSystemPrompt
	}
	orchestrator := assistant.NewOrchestrator(registry, messageRepo, assistant.Options{
		HistoryLimit: cfg.HistoryLimit,
		SystemPrompt: systemPrompt,
		Notifier:     notifier,
	})

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo)
	assistantHandler := handlers.NewAssistantHandler(orchestrator, chatRepo, catalog, registry, cfg.StreamKeepalive)
	documentHandler := handlers.NewDocumentHandler(documentRepo, jobRepo, worker.NewQueue(redisClients.Queue), chatRepo, cfg.StoragePath)

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		documentRepo,
		jobRepo,
		fileExtractService,
		notifier,
		cfg.StoragePath,
		cfg.WorkerCount,
	)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, cfg.FrontendURL)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		chatHandler,
		assistantHandler,
		documentHandler,
		wsHub,
		cfg.FrontendURL,
	)

	// WriteTimeout does not bound /assistant/send; the stream clears its own
	// write deadline.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}
		workerPool.Stop()
	}()

	log.Printf("✓ Chatbot backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	<-done
}
