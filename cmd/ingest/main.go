package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/audiencelab/leadpipe/common/logging"
	natsclient "github.com/audiencelab/leadpipe/common/messaging/nats"
	"github.com/audiencelab/leadpipe/internal/config"
	"github.com/audiencelab/leadpipe/internal/fingerprint"
	"github.com/audiencelab/leadpipe/internal/handlers"
	"github.com/audiencelab/leadpipe/internal/models"
	"github.com/audiencelab/leadpipe/internal/normalizer"
	"github.com/audiencelab/leadpipe/internal/notifier"
	"github.com/audiencelab/leadpipe/internal/ratelimit"
	"github.com/audiencelab/leadpipe/internal/repository"
	"github.com/audiencelab/leadpipe/internal/routing"
	"github.com/audiencelab/leadpipe/internal/server"
	"github.com/audiencelab/leadpipe/internal/service"
	"github.com/audiencelab/leadpipe/internal/validator"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("ingest"))
	logging.SetDefault(logger)

	slog.Info("Starting leadpipe ingest service",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("log_format", cfg.Logging.Format),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}

	// Initialize repository
	var repo repository.Repository
	if cfg.Postgres.Enabled {
		m, err := migrate.New(
			"file://"+cfg.Postgres.MigrationsPath,
			cfg.Postgres.URL,
		)
		if err != nil {
			slog.Error("Failed to initialize migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			slog.Error("Failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
		version, dirty, err := m.Version()
		if err != nil {
			slog.Warn("Could not get migration version", slog.String("error", err.Error()))
		} else {
			slog.Info("Database migration complete",
				slog.Uint64("version", uint64(version)),
				slog.Bool("dirty", dirty),
			)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		pgRepo, err := repository.NewPostgresRepository(ctx, cfg.Postgres.URL)
		cancel()
		if err != nil {
			slog.Error("Failed to connect to Postgres", slog.String("error", err.Error()))
			os.Exit(1)
		}
		repo = pgRepo
	} else {
		slog.Warn("Using in-memory repository (development only)")
		repo = repository.NewInMemoryRepository()
	}
	defer repo.Close()

	// Initialize rate limiter
	var rateLimiter ratelimit.RateLimiter
	if cfg.Redis.Enabled && cfg.Ingestion.RateLimitEnabled {
		limiter, err := ratelimit.NewRedisRateLimiter(
			cfg.Redis.URL,
			cfg.Ingestion.RateLimitRequests,
			cfg.Ingestion.RateLimitWindow,
		)
		if err != nil {
			slog.Warn("Failed to initialize Redis rate limiter, continuing without rate limiting",
				slog.String("error", err.Error()))
			rateLimiter = &ratelimit.NoOpRateLimiter{}
		} else {
			rateLimiter = limiter
			slog.Info("Rate limiting enabled",
				slog.Int("requests", cfg.Ingestion.RateLimitRequests),
				slog.String("window", cfg.Ingestion.RateLimitWindow.String()),
			)
		}
	} else {
		rateLimiter = &ratelimit.NoOpRateLimiter{}
		slog.Info("Rate limiting disabled")
	}
	defer rateLimiter.Close()

	// Initialize routing resolver
	var resolver routing.Resolver
	if cfg.Routing.ServiceURL != "" {
		resolver = routing.NewClient(cfg.Routing.ServiceURL, cfg.Routing.Timeout)
		slog.Info("Using remote routing service", slog.String("url", cfg.Routing.ServiceURL))
	} else {
		static, err := routing.LoadStaticResolver(cfg.Routing.RulesPath)
		if err != nil {
			slog.Warn("Failed to load routing rules, leads will not be routed",
				slog.String("path", cfg.Routing.RulesPath),
				slog.String("error", err.Error()),
			)
			static = routing.NewStaticResolver(nil)
		}
		resolver = static
	}

	// Initialize notifier
	var notify notifier.Notifier
	if cfg.NATS.Enabled {
		natsCfg := natsclient.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.Name = "leadpipe-ingest"
		client, err := natsclient.NewClient(natsCfg)
		if err != nil {
			slog.Error("Failed to connect to NATS", slog.String("error", err.Error()))
			os.Exit(1)
		}
		notify = notifier.NewBusNotifier(client)
		slog.Info("Lead notifications on NATS", slog.String("url", cfg.NATS.URL))
	} else {
		notify = notifier.LogNotifier{}
		slog.Info("Lead notifications to log only")
	}
	defer notify.Close()

	// Initialize pipeline stages
	schemaValidator, err := validator.New()
	if err != nil {
		slog.Error("Failed to compile payload schemas", slog.String("error", err.Error()))
		os.Exit(1)
	}
	norm := normalizer.New(cfg.Scoring)

	pipeline := service.NewPipeline(
		schemaValidator,
		norm,
		repo,
		resolver,
		notify,
		fingerprint.SHA256{},
		logger,
		service.WithMaxBatchRows(cfg.Ingestion.MaxBatchRows),
	)

	// Initialize HTTP layer
	tokens := make(map[models.SourceKind]string, len(cfg.Webhooks.Tokens))
	for name, token := range cfg.Webhooks.Tokens {
		if kind, ok := models.ParseSourceKind(name); ok {
			tokens[kind] = token
		}
	}
	handler := handlers.NewWebhookHandler(
		pipeline, rateLimiter, tokens,
		cfg.Webhooks.DefaultWorkspace, cfg.Ingestion.MaxEventSize, logger,
	)
	router := server.NewRouter(handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		slog.Info("Ingest service listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	slog.Info("Server stopped")
}
