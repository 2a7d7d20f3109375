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

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	redis_adapter "github.com/user/schema-cache/internal/adapter/redis"
	"github.com/user/schema-cache/internal/edge"
	"github.com/user/schema-cache/pkg/config"
	"github.com/user/schema-cache/pkg/logger"
	"github.com/user/schema-cache/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Could not load config", "error", err)
		os.Exit(1)
	}

	logLevel := logger.ParseLevel(cfg.LogLevel)
	logger.Init(os.Stdout, logLevel)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		slog.Error("Unable to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("Redis connection established")

	cache := redis_adapter.NewResponseCacheRepo(rdb)
	proxy, err := edge.New(cache, edge.Options{
		OriginURL:         cfg.OriginURL,
		CachePath:         cfg.EdgeCachePath,
		ForwardHostHeader: cfg.EdgeForwardHostHeader,
		TTL:               cfg.EdgeCacheTTL(),
	})
	if err != nil {
		slog.Error("Invalid edge configuration", "error", err)
		os.Exit(1)
	}

	servers := []*http.Server{
		{
			Addr:        ":" + cfg.EdgePort,
			Handler:     proxy,
			ReadTimeout: 5 * time.Second,
			IdleTimeout: 120 * time.Second,
		},
		{
			Addr:        ":" + cfg.EdgeAdminPort,
			Handler:     edge.NewAdminHandler(cache),
			ReadTimeout: 5 * time.Second,
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			slog.Info("Starting listener", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down edge")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("Listener forced to shutdown", "addr", srv.Addr, "error", err)
			}
		}
		// Responses already sent may still be filling the cache.
		if err := proxy.Wait(shutdownCtx); err != nil {
			slog.Warn("Pending cache fills abandoned", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("Edge stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Edge exiting")
}
