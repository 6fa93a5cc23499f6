// cmd/sales-assistant/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sales-assistant/internal/api"
	"sales-assistant/internal/common/camunda"
	"sales-assistant/internal/common/config"
	"sales-assistant/internal/common/database"
	"sales-assistant/internal/common/logger"
	"sales-assistant/internal/common/metrics"
	"sales-assistant/internal/common/observability"
	"sales-assistant/internal/history"
	"sales-assistant/internal/interpreter"
	aq "sales-assistant/internal/workers/sales/answer-question"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config load failed:", err)
		os.Exit(1)
	}

	zapLog, err := logger.Build(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init failed:", err)
		os.Exit(1)
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting sales assistant...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("store", cfg.Database.Store.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.App.Name, nil)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown(context.Background())

	it, err := interpreter.NewFromConfig(cfg, log,
		interpreter.WithRecorder(metrics.Recorder{}),
		interpreter.WithRecorder(obs),
		interpreter.WithTracer(obs.Tracer()),
	)
	if err != nil {
		zapLog.Fatal("interpreter init failed", zap.Error(err))
	}

	// --- Check the store with retry ---
	store := cfg.Database.ReaderConfig()
	pingStore := func(ctx context.Context) error {
		db, err := database.Open(ctx, store)
		if err != nil {
			return err
		}
		return db.Close()
	}
	if err := retryWithBackoff(func() error { return pingStore(ctx) }, 5, 2*time.Second, zapLog, "Store connection"); err != nil {
		zapLog.Fatal("store unavailable after retries", zap.Error(err))
	}
	zapLog.Info("Store reachable")

	// --- Question history (Redis) ---
	var hist api.HistoryStore
	var redisClient *database.RedisClient
	if cfg.History.Enabled {
		redisClient = database.NewRedis(cfg.Database.Redis)
		defer redisClient.Close()

		if err := retryWithBackoff(func() error { return redisClient.Ping(ctx) }, 10, 2*time.Second, zapLog, "Redis connection"); err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		hist = history.New(redisClient.Client, cfg.History)
		zapLog.Info("Redis connected successfully")
	}

	server := api.NewServer(it, hist, log)
	server.AddReadinessCheck("store", pingStore)
	if redisClient != nil {
		server.AddReadinessCheck("redis", redisClient.Ping)
	}

	// --- Zeebe worker ---
	if cfg.Camunda.Enabled {
		client, err := camunda.NewClientWithConfig(ctx, camunda.ConfigFrom(cfg.Camunda))
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer client.Close()
		zapLog.Info("Zeebe client connected successfully")

		handler, err := aq.NewHandler(aq.HandlerOptions{
			AppConfig: cfg,
			Camunda:   client,
			Asker:     it,
			Recorder:  obs,
			Logger:    log,
		})
		if err != nil {
			zapLog.Fatal("worker init failed", zap.Error(err))
		}
		if err := handler.Register(); err != nil {
			zapLog.Fatal("worker registration failed", zap.Error(err))
		}
		defer handler.Close()
		server.AddReadinessCheck("camunda", handler.HealthCheck)
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Routes(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	select {
	case <-ctx.Done():
		zapLog.Info("Shutdown signal received, stopping...")
	case err := <-serverErr:
		zapLog.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Sales assistant stopped")
}
