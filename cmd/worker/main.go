package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/efa-transit/internal/config"
	"github.com/efa-transit/internal/infrastructure/efa"
	"github.com/efa-transit/internal/pkg/logger"
	"github.com/efa-transit/internal/repository/cache"
	redisRepo "github.com/efa-transit/internal/repository/redis"
	"github.com/efa-transit/internal/usecase"
	"github.com/efa-transit/internal/worker"
	"github.com/efa-transit/internal/worker/departures"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if worker is enabled
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Departure Board Worker")
	log.Info("Configuration loaded",
		zap.String("provider", cfg.EFA.Provider),
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.String("request_stream", cfg.Worker.RequestStream),
		zap.String("result_stream", cfg.Worker.ResultStream),
		zap.Int("max_retries", cfg.Worker.MaxRetries))

	// 3. EFA client
	client, err := efa.New(&cfg.EFA, log)
	if err != nil {
		log.Fatal("Failed to initialize EFA client", zap.Error(err))
	}

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 5. Initialize repositories
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log, cfg.Worker.StreamReadTimeout)

	// 6. Initialize use cases
	boardUC := usecase.NewBoardUseCase(client, log, usecase.BoardConfig{
		Timeout:     cfg.EFA.BoardTimeout,
		Concurrency: cfg.EFA.BoardConcurrency,
		MaxRetries:  cfg.Worker.MaxRetries,
	})

	// 7. Initialize workers
	boardWorker := departures.NewBoardWorker(streamRepo, boardUC, departures.Config{
		ConsumerGroup: cfg.Worker.ConsumerGroup,
		RequestStream: cfg.Worker.RequestStream,
		ResultStream:  cfg.Worker.ResultStream,
		BatchSize:     cfg.Worker.BatchSize,
		Concurrency:   cfg.EFA.BoardConcurrency,
	}, log)

	// 8. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(log)
	workerManager.Register(boardWorker)

	// 9. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	// воркеры дорабатывают текущий batch, затем отменяем запросы к EFA
	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.EFA.Timeout+5*time.Second)
	defer stopCancel()

	if err := workerManager.Stop(stopCtx); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}
	cancel()

	log.Info("Worker shutdown complete")
}
