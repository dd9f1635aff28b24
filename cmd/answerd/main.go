// Answerd is a retrieval-augmented question answering service for web
// content.
//
// The daemon exposes an HTTP API to ingest web pages into a vector store,
// answer questions against the ingested content with a chat model, and
// manage the underlying collection.
//
// Configuration is loaded from an optional YAML file and environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	answerd
//
//	# Configure via environment
//	SERVER_PORT=9000 QDRANT_HOST=qdrant answerd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/answerd/internal/chat"
	"github.com/fyrsmithlabs/answerd/internal/chatlog"
	"github.com/fyrsmithlabs/answerd/internal/config"
	"github.com/fyrsmithlabs/answerd/internal/embeddings"
	"github.com/fyrsmithlabs/answerd/internal/fetcher"
	apihttp "github.com/fyrsmithlabs/answerd/internal/http"
	"github.com/fyrsmithlabs/answerd/internal/ingest"
	"github.com/fyrsmithlabs/answerd/internal/logging"
	"github.com/fyrsmithlabs/answerd/internal/splitter"
	"github.com/fyrsmithlabs/answerd/internal/telemetry"
	"github.com/fyrsmithlabs/answerd/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("answerd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the answerd server and blocks until context is cancelled.
//
// This function initializes all dependencies and services:
//  1. Loads and validates configuration
//  2. Initializes logger and telemetry
//  3. Connects to infrastructure (vector store, NATS, MongoDB)
//  4. Creates the embedding, ingestion, and chat services
//  5. Wires the HTTP server and routes
//  6. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	zlog := logger.Underlying()
	zlog.Info("Starting answerd",
		zap.Int("port", cfg.Server.Port),
		zap.String("vectorstore", cfg.VectorStore.Provider),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	tel, err := telemetry.New(ctx, &cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			zlog.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	deps, err := initDependencies(ctx, cfg, zlog)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	zlog.Info("Dependencies initialized",
		zap.Bool("nats_connected", deps.natsConn != nil),
		zap.Bool("chat_log_enabled", deps.chatLog != nil))

	ingestSvc := ingest.NewService(
		ingest.Config{JobTimeout: cfg.Ingest.JobTimeout},
		deps.store,
		deps.embedder,
		deps.splitter,
		deps.fetcher,
		deps.registry,
		logger,
	)

	composer, err := chat.New(chat.Config{
		APIKey:      cfg.Chat.APIKey,
		Model:       cfg.Chat.Model,
		Temperature: cfg.Chat.Temperature,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat model: %w", err)
	}

	var chatLogger apihttp.ChatLogger
	if deps.chatLog != nil {
		chatLogger = deps.chatLog
	}

	srv, err := apihttp.NewServer(
		&apihttp.Config{
			Host:        cfg.Server.Host,
			Port:        cfg.Server.Port,
			RateLimit:   cfg.Server.RateLimit,
			SearchLimit: cfg.Ingest.SearchLimit,
		},
		ingestSvc,
		deps.store,
		deps.embedder,
		composer,
		chatLogger,
		zlog,
	)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	srv.Echo().GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	zlog.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port)),
		zap.String("api_prefix", "/api/v1"),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

// dependencies holds all infrastructure dependencies.
type dependencies struct {
	natsConn *nats.Conn
	store    vectorstore.Store
	embedder *embeddings.Service
	splitter *splitter.Splitter
	fetcher  *fetcher.Fetcher
	registry *ingest.Registry
	chatLog  *chatlog.Store
	logger   *zap.Logger
}

// Close releases all infrastructure resources.
func (d *dependencies) Close() {
	if d.natsConn != nil {
		d.natsConn.Close()
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.logger.Warn("closing vector store", zap.Error(err))
		}
	}
	if d.chatLog != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.chatLog.Close(closeCtx); err != nil {
			d.logger.Warn("closing chat log sink", zap.Error(err))
		}
	}
}

// initLogger initializes the structured logger.
func initLogger(cfg *config.Config) (*logging.Logger, error) {
	logCfg := logging.NewDefaultConfig()
	if cfg.Logging.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
		}
		logCfg.Level = level
	}
	if cfg.Logging.Format != "" {
		logCfg.Format = cfg.Logging.Format
	}
	return logging.NewLogger(logCfg)
}

// initDependencies initializes all infrastructure dependencies.
//
// This function:
//  1. Connects to the vector store backend
//  2. Creates the embedding client
//  3. Optionally connects NATS for job events and MongoDB for chat logs
func initDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*dependencies, error) {
	store, err := vectorstore.NewStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	logger.Info("Vector store initialized",
		zap.String("provider", cfg.VectorStore.Provider),
		zap.String("collection", cfg.VectorStore.CollectionName),
		zap.Int("vector_size", cfg.VectorStore.VectorSize))

	embedder, err := embeddings.NewService(embeddings.Config{
		BaseURL:      cfg.Embedding.BaseURL,
		Model:        cfg.Embedding.Model,
		APIKey:       cfg.Embedding.APIKey,
		WaitForModel: cfg.Embedding.WaitForModel,
		Timeout:      cfg.Embedding.Timeout,
	}, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create embedding service: %w", err)
	}

	logger.Info("Embedding service initialized",
		zap.String("base_url", cfg.Embedding.BaseURL),
		zap.String("model", cfg.Embedding.Model))

	split, err := splitter.New(splitter.Config{
		ChunkSize:    cfg.Ingest.ChunkSize,
		ChunkOverlap: cfg.Ingest.ChunkOverlap,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create splitter: %w", err)
	}

	fetch := fetcher.New(fetcher.Config{MaxBodyBytes: cfg.Ingest.MaxBodyBytes})

	// NATS is optional. Without it job lifecycle events are not published
	// but background ingestion still works.
	var nc *nats.Conn
	if cfg.NATS.URL != "" {
		nc, err = nats.Connect(cfg.NATS.URL,
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(5),
			nats.ReconnectWait(1*time.Second),
		)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
		}
		logger.Info("Connected to NATS", zap.String("url", cfg.NATS.URL))
	}

	registry := ingest.NewRegistry(nc, cfg.Ingest.JobTTL, logger)

	// The chat log sink is optional. Without a URI the service runs with
	// logging disabled.
	var chatLog *chatlog.Store
	if cfg.ChatLog.URI != "" {
		chatLog, err = chatlog.New(ctx, chatlog.Config{
			URI:        cfg.ChatLog.URI,
			Database:   cfg.ChatLog.Database,
			Collection: cfg.ChatLog.Collection,
		}, logger)
		if err != nil {
			if nc != nil {
				nc.Close()
			}
			_ = store.Close()
			return nil, fmt.Errorf("failed to connect chat log sink: %w", err)
		}
	}

	return &dependencies{
		natsConn: nc,
		store:    store,
		embedder: embedder,
		splitter: split,
		fetcher:  fetch,
		registry: registry,
		chatLog:  chatLog,
		logger:   logger,
	}, nil
}
