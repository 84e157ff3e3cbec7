// Package http содержит HTTP API сервиса пользователей на fiber.
package http

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"devplatform/internal/users/adapters/http/middleware"
	"devplatform/pkg/logger"
)

// ServerConfig - параметры HTTP сервера.
type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewApp создает приложение fiber с маршрутами сервиса.
func NewApp(cfg ServerConfig, handler *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "users",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: errorHandler,
	})
	SetupRouter(app, handler)
	return app
}

// SetupRouter настраивает маршрутизацию.
func SetupRouter(app *fiber.App, handler *Handler) {
	app.Use(middleware.NewRequestIDMiddleware())
	app.Use(middleware.NewLoggerMiddleware())
	app.Use(middleware.NewRecoveryMiddleware())

	app.Get("/health", handler.Health)

	users := app.Group("/api/v1/users")
	users.Post("/", handler.CreateUser)
	users.Get("/", handler.ListUsers)
	users.Get("/stats", handler.Statistics)
	users.Get("/rules", handler.Rules)
	users.Get("/:id", handler.GetUser)
	users.Put("/:id", handler.UpdateUser)
	users.Patch("/:id", handler.UpdateUser)
	users.Delete("/:id", handler.DeleteUser)

	app.Use(func(c fiber.Ctx) error {
		return writeJSON(c, fiber.StatusNotFound, ErrorResponse{Error: ErrMsgRouteNotFound})
	})
}

// errorHandler отвечает на ошибки, не обработанные в хендлерах.
func errorHandler(c fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return writeJSON(c, fiberErr.Code, ErrorResponse{Error: fiberErr.Message})
	}
	return writeJSON(c, fiber.StatusInternalServerError, ErrorResponse{Error: ErrMsgInternal})
}

// Server запускает и останавливает HTTP сервер.
type Server struct {
	app     *fiber.App
	address string
}

// NewServer создает HTTP сервер.
func NewServer(cfg ServerConfig, handler *Handler) *Server {
	return &Server{app: NewApp(cfg, handler), address: cfg.Address}
}

// Start блокирует выполнение, пока сервер не будет остановлен.
func (s *Server) Start(ctx context.Context) error {
	logger.Log(ctx).Info(ctx, "starting HTTP server", zap.String("address", s.address))
	if err := s.app.Listen(s.address, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop останавливает сервер, дожидаясь завершения активных запросов.
func (s *Server) Stop(ctx context.Context) error {
	logger.Log(ctx).Info(ctx, "stopping HTTP server")
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
