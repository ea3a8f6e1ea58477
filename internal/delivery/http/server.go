package http

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	"github.com/efa-transit/internal/config"
	"github.com/efa-transit/internal/delivery/http/handler"
	"github.com/efa-transit/internal/delivery/http/middleware"
	"github.com/efa-transit/internal/pkg/errors"
	"github.com/efa-transit/internal/pkg/utils"
)

// HealthChecker - зависимость, проверяемая в /health
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server - HTTP сервер на основе Fiber
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger
	health HealthChecker

	// Handlers
	transitHandler  *handler.TransitHandler
	providerHandler *handler.ProviderHandler
}

// NewServer - создание нового HTTP сервера
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	health HealthChecker,
	transitHandler *handler.TransitHandler,
	providerHandler *handler.ProviderHandler,
) *Server {
	// ответ включает ожидание сервера EFA до cfg.EFA.Timeout
	writeTimeout := cfg.EFA.Timeout + 5*time.Second

	app := fiber.New(fiber.Config{
		AppName:      "EFA Transit Service",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:             app,
		config:          cfg,
		logger:          logger,
		health:          health,
		transitHandler:  transitHandler,
		providerHandler: providerHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// App - экземпляр Fiber, используется в тестах через app.Test
func (s *Server) App() *fiber.App {
	return s.app
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS())
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	// Swagger documentation route
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	api := s.app.Group("/api/v1")

	api.Get("/health", s.healthCheck)
	api.Get("/providers", s.providerHandler.List)

	// Locations
	api.Get("/locations/suggest", s.transitHandler.Suggest)

	// Stations
	api.Post("/stations/nearby", s.transitHandler.NearbyStations)
	api.Post("/stations/nearby/departures", s.transitHandler.NearbyDepartures)
	api.Get("/stations/:id/departures", s.transitHandler.Departures)

	// Connections
	api.Post("/connections", s.transitHandler.Connections)
	api.Post("/connections/more", s.transitHandler.MoreConnections)
}

// healthCheck godoc
// @Summary Проверка состояния
// @Description Сервис жив; redis=down означает, что кеш подсказок и учет токенов недоступны
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/health [get]
func (s *Server) healthCheck(c *fiber.Ctx) error {
	redisStatus := "up"
	if s.health != nil {
		if err := s.health.Health(c.Context()); err != nil {
			s.logger.Warn("Redis health check failed", zap.Error(err))
			redisStatus = "down"
		}
	}

	return c.JSON(fiber.Map{
		"status":   "healthy",
		"provider": s.config.EFA.Provider,
		"redis":    redisStatus,
		"time":     time.Now(),
	})
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - ошибки Fiber (404, 405, паники) в формате ErrorResponse
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		appErr := errors.ErrInternalServer

		var fe *fiber.Error
		if stderrors.As(err, &fe) {
			code = fe.Code
			if code < fiber.StatusInternalServerError {
				appErr = errors.New("HTTP_ERROR", fe.Message, code)
			}
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.String("request_id", utils.RequestID(c)),
			zap.Error(err),
		)

		return c.Status(code).JSON(utils.ErrorResponse{
			Error:     appErr,
			RequestID: utils.RequestID(c),
		})
	}
}
