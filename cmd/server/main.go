package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"agrichat/internal/config"
	"agrichat/internal/database"
	"agrichat/internal/handlers"
	"agrichat/internal/logging"
	"agrichat/internal/middleware"
	"agrichat/internal/repository"
	"agrichat/internal/router"
	"agrichat/internal/services"
	"agrichat/internal/websocket"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	logCloser, err := logging.Init(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup failed: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	log.Info().Msg("🚀 Starting AgriChat Backend...")
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("✗ Invalid configuration")
	}
	log.Info().Msg("✓ Environment variables loaded")

	// ──── Step 2: Open Chat Storage ────
	store, closeStore := openStore(cfg)
	defer closeStore()

	// ──── Step 3: Connect Redis (optional) ────
	var redisClients *database.RedisClients
	if cfg.RedisURL != "" {
		redisClients, err = database.NewRedisClients(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("✗ Redis connection failed")
		}
		defer redisClients.Close()
		log.Info().Msg("✓ Redis connected")
	} else {
		log.Info().Msg("• REDIS_URL not set: answer cache off, live updates local only")
	}

	// ──── Step 4: Initialize Advisor ────
	prompt, err := services.LoadPromptSpec(cfg.PromptFile)
	if err != nil {
		log.Fatal().Err(err).Msg("✗ Prompt file could not be loaded")
	}

	advisor, closeAdvisor, err := newAdvisor(cfg, prompt)
	if err != nil {
		log.Fatal().Err(err).Msg("✗ LLM client initialization failed")
	}
	defer closeAdvisor()
	log.Info().Str("advisor", advisor.Name()).Msg("✓ LLM client initialized")

	// ──── Step 5: Wire Services ────
	opts := services.ChatOptions{
		Languages:     cfg.SupportedLanguages,
		HistoryWindow: cfg.HistoryWindow,
	}

	var wsHub *websocket.Hub
	if redisClients != nil {
		wsHub = websocket.NewHub(redisClients.PubSub, store)
		opts.Cache = services.NewRedisAnswerCache(redisClients.Cache, cfg.AnswerCacheTTL)
		opts.Publisher = services.NewRedisPublisher(redisClients.Cache)
	} else {
		wsHub = websocket.NewHub(nil, store)
		opts.Publisher = wsHub
	}
	defer wsHub.Close()

	chatService := services.NewChatService(store, advisor, prompt, opts)
	log.Info().Msg("✓ WebSocket hub started")

	// ──── Step 6: Start HTTP Server ────
	askLimiter := middleware.NewRateLimiter(cfg.AskRateLimit, time.Minute)
	defer askLimiter.Stop()

	r := router.New(
		handlers.NewChatHandler(chatService),
		handlers.NewSystemHandler(chatService),
		askLimiter,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Model calls can be slow.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Info().Msgf("✓ AgriChat Backend ready on http://localhost:%s", cfg.Port)
	log.Info().Msgf("  Check: http://localhost:%s/test", cfg.Port)
	log.Info().Msgf("  WS:    ws://localhost:%s/chat/{session_id}/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server error")
	}
	<-done
}

// openStore picks Postgres, then SQLite, then memory.
func openStore(cfg *config.Config) (services.ChatStore, func()) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("✗ PostgreSQL connection failed")
		}
		log.Info().Msg("✓ PostgreSQL connected")

		if err := database.RunMigrations(pool, "migrations"); err != nil {
			pool.Close()
			log.Fatal().Err(err).Msg("✗ Database migration failed")
		}
		log.Info().Msg("✓ Database migrations applied")
		return repository.NewChatRepo(pool), pool.Close

	case cfg.SQLitePath != "":
		db, err := database.NewSQLite(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("✗ SQLite open failed")
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("✓ SQLite opened")
		return repository.NewSQLiteChatRepo(db), func() { db.Close() }

	default:
		log.Warn().Msg("• No DATABASE_URL or SQLITE_PATH: chats are kept in memory")
		return repository.NewMemoryChatRepo(), func() {}
	}
}

func newAdvisor(cfg *config.Config, prompt *services.PromptSpec) (services.Advisor, func(), error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return services.NewOpenAIAdvisor(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.LLMConcurrentRequests, prompt), func() {}, nil
	default:
		gemini, err := services.NewGeminiAdvisor(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.LLMConcurrentRequests, prompt)
		if err != nil {
			return nil, nil, err
		}
		return gemini, gemini.Close, nil
	}
}
