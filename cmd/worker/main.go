// The worker drains the outbox to the broker, consumes visit events for the
// SMS side channel, and serves health endpoints.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	internalApp "github.com/rotahq/rota/internal/app"
	"github.com/rotahq/rota/internal/shared/infrastructure/eventbus"
	"github.com/rotahq/rota/pkg/config"
	"github.com/rotahq/rota/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()
	logger.Info("starting rota worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	container, err := internalApp.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	if err := container.OutboxProcessor.Start(ctx); err != nil {
		logger.Error("failed to start outbox processor", "error", err)
		os.Exit(1)
	}

	// With a broker configured, consume visit events back from RabbitMQ. In
	// local mode the in-process bus already delivers them synchronously.
	var consumer *eventbus.RabbitMQConsumer
	if cfg.RabbitMQURL != "" && container.NotifyConsumer != nil {
		registry := eventbus.NewConsumerRegistry(logger)
		registry.Register(container.NotifyConsumer)

		consumer, err = eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:    cfg.RabbitMQURL,
			Logger: logger,
		}, registry)
		if err != nil {
			logger.Error("failed to connect RabbitMQ consumer", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := consumer.Start(ctx); err != nil {
				logger.Error("event consumer stopped", "error", err)
				cancel()
			}
		}()
	}

	if cfg.WorkerHealthAddr != "" {
		startHealthServer(ctx, cfg, container, logger)
	}

	<-ctx.Done()
	logger.Info("shutting down worker")

	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Warn("error closing event consumer", "error", err)
		}
	}
	container.OutboxProcessor.Stop()
	logger.Info("worker stopped")
}

// A backlog past this many unpublished events degrades the health report.
const outboxBacklogThreshold = 500

func startHealthServer(ctx context.Context, cfg *config.Config, container *internalApp.Container, logger *slog.Logger) {
	health := observability.NewHealthRegistry()
	switch {
	case container.Pool != nil:
		health.Register("database", observability.DatabaseHealthChecker(container.Pool.Ping))
	case container.SQLiteDB != nil:
		health.Register("database", observability.DatabaseHealthChecker(container.SQLiteDB.PingContext))
	}
	if container.RedisClient != nil {
		health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return container.RedisClient.Ping(ctx).Err()
		}))
	}
	health.Register("outbox", observability.OutboxBacklogChecker(
		container.OutboxRepo.CountPending, outboxBacklogThreshold,
	))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		overall := health.GetOverallHealth(checkCtx)
		w.Header().Set("Content-Type", "application/json")
		if overall.Status == observability.HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		body, err := overall.ToJSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(body)
	})

	srv := &http.Server{
		Addr:              cfg.WorkerHealthAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("health server shutdown error", "error", err)
		}
	}()
}
