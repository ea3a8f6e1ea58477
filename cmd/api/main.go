package main

// @title EFA Transit API
// @version 1.0.0
// @description Сервис запросов к серверам EFA (Elektronische Fahrplanauskunft) немецких транспортных объединений. Один экземпляр обслуживает одного провайдера из реестра.
// @description
// @description Основные возможности:
// @description - Автодополнение станций, адресов и POI
// @description - Поиск ближайших остановок по станции или координате
// @description - Табло отправлений, в том числе для нескольких ближайших остановок сразу
// @description - Поиск маршрутов и постраничное продолжение по одноразовому токену

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	_ "github.com/efa-transit/docs"
	"github.com/efa-transit/internal/config"
	httpDelivery "github.com/efa-transit/internal/delivery/http"
	"github.com/efa-transit/internal/delivery/http/handler"
	"github.com/efa-transit/internal/infrastructure/efa"
	"github.com/efa-transit/internal/pkg/logger"
	"github.com/efa-transit/internal/repository/cache"
	"github.com/efa-transit/internal/usecase"
	"github.com/efa-transit/internal/usecase/dto"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting EFA Transit Service")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("provider", cfg.EFA.Provider),
	)

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
	log.Info("Redis connected")

	// 5. Initialize Repositories
	cacheRepo := cache.NewCacheRepository(redisClient)

	// 6. Initialize Use Cases
	transitUC := usecase.NewTransitUseCase(
		client,
		cacheRepo,
		log,
		cfg.EFA.Provider,
		cfg.Cache.SuggestCacheTTL,
		cfg.Cache.ContextTTL,
	)

	boardUC := usecase.NewBoardUseCase(client, log, usecase.BoardConfig{
		Timeout:     cfg.EFA.BoardTimeout,
		Concurrency: cfg.EFA.BoardConcurrency,
		MaxRetries:  cfg.Worker.MaxRetries,
	})

	log.Info("Use cases initialized")

	// 7. Initialize HTTP Handlers
	transitHandler := handler.NewTransitHandler(transitUC, boardUC, cfg.EFA.Provider, log)
	providerHandler := handler.NewProviderHandler(providerList(client.Config()), cfg.EFA.Provider)

	// 8. Initialize HTTP Server
	server := httpDelivery.NewServer(
		cfg,
		log,
		redisClient,
		transitHandler,
		providerHandler,
	)

	// 9. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 10. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	if err := redisClient.Close(); err != nil {
		log.Error("Failed to close Redis", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}

// providerList - реестр провайдеров, активный берется из клиента с учетом EFA_BASE_URL
func providerList(active efa.ProviderConfig) []dto.ProviderInfo {
	ids := efa.ProviderIDs()
	providers := make([]dto.ProviderInfo, 0, len(ids))
	for _, id := range ids {
		pc, err := efa.Lookup(id)
		if err != nil {
			continue
		}
		if id == active.ID {
			pc = active
		}
		providers = append(providers, dto.ProviderInfo{
			ID:      string(pc.ID),
			Name:    pc.Name,
			BaseURL: pc.BaseURL,
			Active:  id == active.ID,
		})
	}
	return providers
}
