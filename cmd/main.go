package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"agente_gateway/internal/broadcast"
	"agente_gateway/internal/config"
	"agente_gateway/internal/infrastructure"
	httpiface "agente_gateway/internal/interfaces/http"
	"agente_gateway/internal/repository"
	"agente_gateway/internal/usecases"
)

func main() {
	// Load .env file, if present
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Data stores
	pgClient, err := infrastructure.NewPostgresClient(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgClient.Close()

	supaClient, err := infrastructure.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey)
	if err != nil {
		logger.Error("failed to create supabase client", "error", err)
		os.Exit(1)
	}

	catalogRepo := repository.NewCatalogRepository(pgClient)

	// Model API plumbing
	caller := infrastructure.NewCaller(3, 0, logger)
	gemini := infrastructure.NewGeminiClient(caller, cfg.GenerativeModel, cfg.EmbeddingModel)

	// Reply pipeline
	resolver := usecases.NewTenantResolver(supaClient, logger)
	tools := usecases.NewToolExecutor(gemini, catalogRepo, cfg.MatchThreshold, cfg.MatchCount, logger)
	orchestrator := usecases.NewOrchestrator(
		gemini, gemini, catalogRepo, resolver, tools,
		cfg.PipelineMode, cfg.MatchThreshold, cfg.MatchCount, logger,
	)
	catalogResolver := usecases.NewCatalogResolver(cfg.CatalogProxyURL, logger)

	// WhatsApp session
	if err := os.MkdirAll(cfg.SessionDir, 0o755); err != nil {
		logger.Error("failed to create session directory", "error", err)
		os.Exit(1)
	}
	waClient, err := infrastructure.NewWhatsAppClient(ctx, cfg.SessionDir, logger)
	if err != nil {
		logger.Error("failed to initialize whatsapp client", "error", err)
		os.Exit(1)
	}

	hub := broadcast.NewHub(logger)
	connection := infrastructure.NewConnection(waClient, hub, logger, cfg.MaxReconnect, cfg.ReconnectDelay)
	hub.SetLifecycle(connection)

	clientID := func() string {
		if cfg.ClientID != "" {
			return cfg.ClientID
		}
		_, number, _ := connection.Status()
		return number
	}

	chatService := usecases.NewChatService(
		orchestrator,
		usecases.NewHistoryStore(),
		usecases.NewSessionLocks(),
		infrastructure.NewMessageRateLimiter(0.5, 3),
		connection,
		hub,
		clientID,
		logger,
	)
	connection.SetMessageHandler(chatService.HandleMessage)

	// HTTP surface
	router := gin.Default()
	handler := httpiface.NewHandler(orchestrator, catalogResolver, connection, hub, logger)
	httpiface.SetupRoutes(router, handler)

	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := router.Run(cfg.HTTPAddr); err != nil {
			logger.Error("http server stopped", "error", err)
			os.Exit(1)
		}
	}()

	// The HTTP surface stays up even if the session exhausts its reconnect
	// budget; a QR or status request still answers.
	if err := connection.Start(ctx); err != nil {
		logger.Error("failed to start whatsapp session", "error", err)
	}

	select {}
}
