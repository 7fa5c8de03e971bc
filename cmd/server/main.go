package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/evently/evently/internal/api"
	"github.com/evently/evently/internal/assistant"
	"github.com/evently/evently/internal/auth"
	"github.com/evently/evently/internal/config"
	"github.com/evently/evently/internal/database"
	"github.com/evently/evently/internal/eventbrite"
	"github.com/evently/evently/internal/ingestion"
	"github.com/evently/evently/internal/logging"
	"github.com/evently/evently/internal/metrics"
	"github.com/evently/evently/internal/scheduler"
	"github.com/evently/evently/internal/server"
	"log/slog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting evently")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database (supports both local DATABASE_URL and Cloud SQL)
	dbURL, err := database.BuildURL()
	if err != nil {
		logger.Error("failed to build database URL", "error", err)
		os.Exit(1)
	}
	logger.Info("connecting to database", "url", database.RedactURL(dbURL))

	dbCfg := database.DefaultConfig()
	dbCfg.URL = dbURL
	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	// Run pending migrations (non-fatal to allow app to start even if
	// migrations fail)
	if err := database.RunMigrations(db, "./migrations", logger); err != nil {
		logger.Warn("failed to run migrations, continuing anyway", "error", err)
	}

	// Repositories
	eventRepo := database.NewPostgresEventRepository(db)
	runRepo := database.NewPostgresRunRepository(db)
	errorRepo := database.NewPostgresErrorRepository(db)

	// Metrics
	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	// Ingestion pipeline
	client := eventbrite.NewClient(eventbrite.Config{
		Token:          cfg.Eventbrite.Token,
		OrganizationID: cfg.Eventbrite.OrganizationID,
		Style:          cfg.Eventbrite.Style,
	}, logger)
	ingestor := ingestion.NewIngestor(client, eventRepo, runRepo, errorRepo, collector, logger)

	if cfg.Eventbrite.Token == "" {
		logger.Warn("EVENTBRITE_TOKEN is not set; scrape triggers will fail until configured")
	}

	// Handlers
	authConfig := auth.LoadConfigFromEnv()

	deps := api.Deps{
		Scrape:     api.NewScrapeHandler(ingestor, cfg.Scrape, logger),
		Events:     api.NewEventHandler(eventRepo, logger),
		Search:     api.NewSearchHandler(client, logger),
		Admin:      api.NewAdminHandler(runRepo, errorRepo, logger),
		Auth:       api.NewAuthHandler(authConfig, logger),
		AuthConfig: authConfig,
		DB:         db,
		Logger:     logger,
	}

	if cfg.OpenAIKey != "" {
		asst := assistant.New(assistant.DefaultConfig(cfg.OpenAIKey), eventRepo, logger)
		deps.Chat = api.NewChatHandler(asst, logger)
		logger.Info("event-discovery chat enabled")
	}

	mux := http.NewServeMux()
	api.SetupRoutes(mux, deps)
	mux.Handle("/metrics", collector.Handler())

	// Scheduled ingestion loop
	sched := scheduler.NewScrapeScheduler(ingestor, cfg.Scrape.Interval, cfg.Scrape.WindowDays, logger)
	go sched.Start(ctx)

	srv := server.New(cfg.Server, logger, collector.InstrumentHandler(mux))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	}

	sched.Stop()
	cancel()

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
