package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/kb-assistant/internal/api"
	"github.com/Rrens/kb-assistant/internal/api/handler"
	"github.com/Rrens/kb-assistant/internal/config"
	"github.com/Rrens/kb-assistant/internal/ingest"
	"github.com/Rrens/kb-assistant/internal/leave"
	"github.com/Rrens/kb-assistant/internal/llm"
	"github.com/Rrens/kb-assistant/internal/llm/anthropic"
	"github.com/Rrens/kb-assistant/internal/llm/deepseek"
	"github.com/Rrens/kb-assistant/internal/llm/gemini"
	"github.com/Rrens/kb-assistant/internal/llm/ollama"
	"github.com/Rrens/kb-assistant/internal/llm/openai"
	"github.com/Rrens/kb-assistant/internal/llm/qianwen"
	"github.com/Rrens/kb-assistant/internal/logging"
	"github.com/Rrens/kb-assistant/internal/qa"
	"github.com/Rrens/kb-assistant/internal/repository"
	"github.com/Rrens/kb-assistant/internal/repository/redis"
	"github.com/Rrens/kb-assistant/internal/security"
	"github.com/Rrens/kb-assistant/internal/service"
	"github.com/Rrens/kb-assistant/internal/vector"
	"github.com/Rrens/kb-assistant/internal/workflow"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			fmt.Printf("Loaded .env from: %s\n", p)
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCloser, err := logging.Setup(cfg.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer logCloser.Close()

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("leave_store", cfg.LeaveStore.Driver).
		Msg("Starting KB assistant API server")

	ctx := context.Background()

	// Initialize Redis
	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Initialize leave store
	leaveStore, err := repository.OpenLeaveStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open leave store")
	}
	defer leaveStore.Close()

	llmRouter := newLLMRouter(cfg)

	embedder := vector.NewCachedEmbedder(
		vector.NewHTTPEmbedder(vector.EmbedderOptions{
			BaseURL:   cfg.Vector.EmbeddingBaseURL,
			APIKey:    cfg.Vector.EmbeddingAPIKey,
			Model:     cfg.Vector.EmbeddingModel,
			BatchSize: cfg.Vector.EmbeddingBatch,
		}),
		redis.NewEmbeddingCache(redisClient),
		cfg.Vector.EmbeddingModel,
	)
	chroma := vector.NewChroma(cfg.Vector.ChromaURL, cfg.Vector.Collection, embedder, nil)

	// Turn engine
	qaFlow := qa.NewFlow(chroma, llmRouter, cfg.Vector.TopK, cfg.Vector.ContextDocs)
	leaveFlow := leave.NewWorkflow(
		leaveStore,
		leave.NewLLMExtractor(llmRouter),
		cfg.LeaveStore.Location(),
		leave.WithDefaultBalance(cfg.LeaveStore.DefaultAnnualDays),
	)
	engine := workflow.NewEngine(qaFlow, leaveFlow)

	// Session state
	sessions := redis.NewSessionStore(redisClient, cfg.Session.TTL)
	if cfg.Session.EncryptionKey != "" {
		sealer, err := security.NewSealer(cfg.Session.EncryptionKey)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up session encryption")
		}
		sessions = sessions.WithSealer(sealer)
	}
	locker := redis.NewSessionLocker(redisClient, cfg.Session.LockTTL, cfg.Session.LockWait)

	var limiter *redis.RateLimiter
	if cfg.Security.RateLimit.RequestsPerMinute > 0 {
		limiter = redis.NewRateLimiter(redisClient, cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
	}

	deps := api.Deps{
		Chat:   service.NewChatService(engine, sessions, locker),
		Ingest: ingest.NewService(cfg.Ingest.DataDir, chroma, ingest.NewSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)),
		Leaves: service.NewLeaveService(leaveStore),
		Tokens: security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL),
		LLM:    llmRouter,
		Ready: map[string]handler.ReadinessCheck{
			"redis":  redisClient.Ping,
			"chroma": chroma.Heartbeat,
		},
	}
	if limiter != nil {
		deps.Limiter = limiter
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(cfg, deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// newLLMRouter registers every provider that has credentials
func newLLMRouter(cfg *config.Config) *llm.Router {
	router := llm.NewRouter(cfg.LLM.DefaultProvider)
	log.Info().Msgf("Initializing LLM providers. Default: %s", cfg.LLM.DefaultProvider)

	if cfg.LLM.Qianwen.APIKey != "" {
		router.RegisterProvider(qianwen.NewProvider(cfg.LLM.Qianwen.APIKey, cfg.LLM.Qianwen.Model, cfg.LLM.Qianwen.BaseURL))
	}
	if cfg.LLM.Ollama.Host != "" {
		log.Info().Str("host", cfg.LLM.Ollama.Host).Msg("Registering Ollama provider")
		router.RegisterProvider(ollama.NewProvider(cfg.LLM.Ollama.Host, cfg.LLM.Ollama.DefaultModel))
	}
	if cfg.LLM.OpenAI.APIKey != "" {
		if cfg.LLM.OpenAI.BaseURL != "" {
			router.RegisterProvider(openai.NewCompatibleProvider(openai.Options{
				APIKey:       cfg.LLM.OpenAI.APIKey,
				DefaultModel: cfg.LLM.OpenAI.Model,
				BaseURL:      cfg.LLM.OpenAI.BaseURL,
			}))
		} else {
			router.RegisterProvider(openai.NewProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model))
		}
	}
	if cfg.LLM.Anthropic.APIKey != "" {
		router.RegisterProvider(anthropic.NewProvider(cfg.LLM.Anthropic.APIKey, cfg.LLM.Anthropic.Model))
	}
	if cfg.LLM.DeepSeek.APIKey != "" {
		router.RegisterProvider(deepseek.NewProvider(cfg.LLM.DeepSeek.APIKey, cfg.LLM.DeepSeek.Model))
	}
	if cfg.LLM.Gemini.APIKey != "" {
		router.RegisterProvider(gemini.NewProvider(cfg.LLM.Gemini))
	}

	if len(router.ListProviders()) == 0 {
		log.Warn().Msg("No LLM provider configured; answers will fall back to the service failure message")
	}
	return router
}
