package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minber-ai/minber/internal/answer"
	"github.com/minber-ai/minber/internal/api"
	"github.com/minber-ai/minber/internal/audit"
	"github.com/minber-ai/minber/internal/config"
	"github.com/minber-ai/minber/internal/core"
	"github.com/minber-ai/minber/internal/embed"
	"github.com/minber-ai/minber/internal/ingest"
	"github.com/minber-ai/minber/internal/llm"
	"github.com/minber-ai/minber/internal/logger"
	"github.com/minber-ai/minber/internal/rag"
)

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Initialize logger
	logger.Init(*debug || os.Getenv("LOG_LEVEL") == "debug")

	logger.Info("Starting content service...")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize services
	logger.Info("Initializing services...")

	requestTimeout := time.Duration(cfg.RequestTimeoutMS) * time.Millisecond

	var store core.VectorStore
	if cfg.UseMockStore {
		logger.Warn("Using in-memory vector store; stored embeddings will not survive a restart")
		store = rag.NewMemoryStore()
	} else {
		milvusStore, err := rag.NewMilvusStore(ctx, cfg.MilvusAddr(), cfg.EmbeddingDim)
		if err != nil {
			logger.Error("Failed to initialize Milvus store: %v", err)
			os.Exit(1)
		}
		defer func() {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer closeCancel()
			if err := milvusStore.Close(closeCtx); err != nil {
				logger.Error("Failed to close Milvus connection: %v", err)
			}
		}()
		store = milvusStore
	}

	embedder := embed.NewGroqEmbedder(embed.Options{
		APIKey:     cfg.GroqAPIKey,
		BaseURL:    cfg.GroqBaseURL,
		Model:      cfg.EmbeddingModel,
		Timeout:    requestTimeout,
		RatePerSec: cfg.EmbedRatePerSec,
		Burst:      cfg.EmbedRateBurst,
	})

	chat := llm.NewGroqService(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.ChatModel, 0)

	auditLog, err := audit.Open(cfg.AuditDBPath)
	if err != nil {
		logger.Error("Failed to open audit log: %v", err)
		os.Exit(1)
	}
	defer auditLog.Close()

	pipeline := ingest.NewPipeline(embedder, store, cfg.ChunkTargetSize, cfg.IngestWorkers)
	orchestrator := answer.NewOrchestrator(embedder, store, chat, auditLog, cfg.MatchThreshold, cfg.MatchCount)

	router := api.NewRouter(api.NewHandler(pipeline, orchestrator, store))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed: %v", err)
			cancel()
		}
	}()

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutdown signal received")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}

	logger.Info("Service has been shut down")
}
