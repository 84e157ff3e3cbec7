// Package main реализует точку входа сервиса пользователей.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"devplatform/internal/users/adapters/grpc"
	usershttp "devplatform/internal/users/adapters/http"
	"devplatform/internal/users/composition"
	"devplatform/internal/users/config"
	"devplatform/pkg/logger"
	"devplatform/pkg/shutdown"
)

// Переменные окружения, читаемые до загрузки конфигурации.
const (
	EnvLoggerMode  = "USERS_LOGGER_MODE"
	EnvLoggerLevel = "USERS_LOGGER_LEVEL"
)

// Сообщения об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrInitContainer        = "failed to initialize dependencies"
	ErrStartGRPC            = "failed to start gRPC server"
	ErrStartHTTP            = "failed to start HTTP server"
	ErrShutdown             = "graceful shutdown finished with errors"
)

// Игнорируемые ошибки Sync для stdout/stderr.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Сообщения сервиса.
const (
	LogServiceStarted      = "users service started"
	LogServiceShutdownDone = "users service shutdown complete"
)

func main() {
	env := logger.Development
	if strings.ToLower(os.Getenv(EnvLoggerMode)) == string(logger.Production) {
		env = logger.Production
	}

	log, err := logger.NewLogger(env, os.Getenv(EnvLoggerLevel))
	if err != nil {
		panic(ErrInitLogger + ": " + err.Error())
	}
	logger.SetGlobalLogger(log)

	ctx := logger.NewRequestIDContext(context.Background(), "")

	if err := run(ctx); err != nil {
		logger.Log(ctx).Error(ctx, "users service failed", zap.Error(err))
		syncLogger()
		os.Exit(1)
	}
	syncLogger()
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrLoadConfig, err)
	}

	finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrInitLoggerWithConfig, err)
	}
	logger.SetGlobalLogger(finalLogger)
	log := finalLogger

	container, err := composition.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrInitContainer, err)
	}

	log.Info(ctx, LogServiceStarted,
		zap.String("environment", string(cfg.Logging.GetEnvironment())),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("startup_time", time.Now().Format(time.RFC3339)))

	var checker grpc.HealthChecker
	var httpChecker usershttp.HealthChecker
	if hc := container.HealthChecker(); hc != nil {
		checker, httpChecker = hc, hc
	}

	grpcServer := grpc.New(cfg.GRPC.GetAddress(), checker, cfg.GRPC.HealthInterval)
	if err := grpcServer.Start(ctx); err != nil {
		_ = container.Close(ctx)
		return fmt.Errorf("%s: %w", ErrStartGRPC, err)
	}

	httpServer := usershttp.NewServer(usershttp.ServerConfig{
		Address:      cfg.HTTP.GetAddress(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}, usershttp.NewHandler(container.UserUseCase(), httpChecker))

	go func() {
		if err := httpServer.Start(ctx); err != nil {
			log.Error(ctx, ErrStartHTTP, zap.Error(err))
		}
	}()

	err = shutdown.Wait(ctx, cfg.Shutdown.GetTimeout(),
		shutdown.Hook{Name: "http", Fn: httpServer.Stop},
		shutdown.Hook{Name: "grpc", Fn: func(ctx context.Context) error {
			grpcServer.Stop(ctx)
			return nil
		}},
	)
	if err != nil {
		log.Warn(ctx, ErrShutdown, zap.Error(err))
	}

	if err := container.Close(ctx); err != nil {
		log.Warn(ctx, ErrShutdown, zap.Error(err))
	}

	log.Info(ctx, LogServiceShutdownDone)
	return nil
}

func syncLogger() {
	if err := logger.Log(context.Background()).Sync(); err != nil {
		errMsg := err.Error()
		if strings.Contains(errMsg, ErrSyncStderr) || strings.Contains(errMsg, ErrSyncStdout) {
			return
		}
		if _, writeErr := fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err); writeErr != nil {
			panic(writeErr)
		}
	}
}
