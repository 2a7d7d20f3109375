package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/user/schema-cache/internal/adapter/memory"
	"github.com/user/schema-cache/internal/adapter/postgres"
	"github.com/user/schema-cache/internal/delivery/http/handler"
	"github.com/user/schema-cache/internal/delivery/http/router"
	"github.com/user/schema-cache/internal/repository"
	"github.com/user/schema-cache/internal/usecase"
	"github.com/user/schema-cache/pkg/config"
	"github.com/user/schema-cache/pkg/logger"
	"github.com/user/schema-cache/pkg/metrics"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Could not load config", "error", err)
		os.Exit(1)
	}

	// --- Logger ---
	logLevel := logger.ParseLevel(cfg.LogLevel)
	logger.Init(os.Stdout, logLevel)
	slog.Info("Logger initialized", "level", logLevel.String())

	// --- Metrics ---
	metrics.Init()
	slog.Info("Metrics initialized")

	ctx := context.Background()

	// --- Repositories ---
	var (
		orgRepo    repository.OrganizationRepository
		schemaRepo repository.PageSchemaRepository
		driftRepo  repository.DriftSignalRepository
		db         handler.Pinger
	)
	switch cfg.StoreDriver {
	case "memory":
		store := memory.NewStore()
		orgRepo, schemaRepo, driftRepo = store.Organizations(), store.PageSchemas(), store.DriftSignals()
		slog.Warn("Using in-memory store, data is lost on restart")

		seeded, err := seedOrganization(ctx, usecase.NewOnboarding(orgRepo), cfg)
		if err != nil {
			slog.Error("Unable to seed organization", "error", err)
			os.Exit(1)
		}
		if seeded == nil {
			slog.Warn("SEED_ORG_DOMAIN is empty, no organization can write to this store")
		}
	case "postgres":
		dbpool, err := postgres.Connect(ctx, cfg.PostgresConnString())
		if err != nil {
			slog.Error("Unable to connect to database", "error", err)
			os.Exit(1)
		}
		defer dbpool.Close()
		slog.Info("PostgreSQL connection pool established")

		orgRepo = postgres.NewOrganizationRepo(dbpool)
		schemaRepo = postgres.NewPageSchemaRepo(dbpool)
		driftRepo = postgres.NewDriftSignalRepo(dbpool)
		db = dbpool
	default:
		slog.Error("Unknown store driver", "driver", cfg.StoreDriver)
		os.Exit(1)
	}

	// --- Use Cases ---
	schemaManager := usecase.NewSchemaManager(orgRepo, schemaRepo, driftRepo)
	driftManager := usecase.NewDriftManager(orgRepo, schemaRepo, driftRepo)

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(schemaManager, driftManager, db, handler.Options{
		PublicBaseURL:       cfg.PublicBaseURL,
		SchemaMaxAge:        cfg.SchemaMaxAge,
		MissingSchemaMaxAge: cfg.MissingSchemaMaxAge,
	})
	httpRouter := router.New(apiHandler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.ServerPort, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", "port", cfg.ServerPort, "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	slog.Info("Server exiting")
}
