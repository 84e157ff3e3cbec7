// Package grpc предоставляет gRPC сервер сервиса пользователей со стандартным
// сервисом проверки здоровья.
package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"devplatform/pkg/logger"
)

// ServiceName - имя сервиса в протоколе grpc.health.v1.
const ServiceName = "devplatform.users"

// Константы для логирования.
const (
	LogServerStarting   = "Starting gRPC server"
	LogServerStarted    = "gRPC server started"
	LogServerStopping   = "Stopping gRPC server"
	LogServerStopped    = "gRPC server stopped"
	LogHealthChanged    = "health status changed"
	ErrServerStart      = "failed to start gRPC server"
	ErrHealthCheckFails = "database health check failed"
)

// DefaultHealthInterval - период проверки хранилища по умолчанию.
const DefaultHealthInterval = 10 * time.Second

// HealthChecker проверяет доступность хранилища. Реализуется пулом pgx.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server представляет gRPC сервер.
type Server struct {
	address  string
	server   *grpc.Server
	health   *health.Server
	checker  HealthChecker
	interval time.Duration

	mu      sync.Mutex
	serving healthpb.HealthCheckResponse_ServingStatus
	stop    chan struct{}
}

// New создает сервер. checker может быть nil: тогда сервис всегда SERVING.
func New(address string, checker HealthChecker, interval time.Duration) *Server {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(RequestIDInterceptor()))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &Server{
		address:  address,
		server:   srv,
		health:   hs,
		checker:  checker,
		interval: interval,
		serving:  healthpb.HealthCheckResponse_UNKNOWN,
		stop:     make(chan struct{}),
	}
}

// Start открывает TCP-порт и начинает обслуживание.
func (s *Server) Start(ctx context.Context) error {
	log := logger.Log(ctx)
	log.Info(ctx, LogServerStarting, zap.String("address", s.address))

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		log.Error(ctx, ErrServerStart, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrServerStart, err)
	}

	s.Serve(ctx, listener)
	log.Info(ctx, LogServerStarted, zap.String("address", s.address))
	return nil
}

// Serve начинает обслуживание на готовом listener и запускает периодическую
// проверку хранилища. Не блокирует.
func (s *Server) Serve(ctx context.Context, listener net.Listener) {
	log := logger.Log(ctx)

	s.RefreshHealth(ctx)

	go func() {
		if err := s.server.Serve(listener); err != nil {
			log.Error(ctx, ErrServerStart, zap.Error(err))
		}
	}()
	go s.watch(context.WithoutCancel(ctx))
}

// RefreshHealth проверяет хранилище и обновляет статус health-сервиса.
func (s *Server) RefreshHealth(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if s.checker != nil {
		pingCtx, cancel := context.WithTimeout(ctx, s.interval)
		err := s.checker.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Log(ctx).Warn(ctx, ErrHealthCheckFails, zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.setStatus(ctx, status)
	return status
}

func (s *Server) setStatus(ctx context.Context, status healthpb.HealthCheckResponse_ServingStatus) {
	s.mu.Lock()
	changed := s.serving != status
	s.serving = status
	s.mu.Unlock()

	if changed {
		logger.Log(ctx).Info(ctx, LogHealthChanged, zap.String("status", status.String()))
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.RefreshHealth(ctx)
		}
	}
}

// Stop переводит сервис в NOT_SERVING и дожидается завершения активных вызовов.
func (s *Server) Stop(ctx context.Context) {
	log := logger.Log(ctx)
	log.Info(ctx, LogServerStopping)

	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	s.health.Shutdown()
	s.server.GracefulStop()

	log.Info(ctx, LogServerStopped)
}

// RegisterService регистрирует дополнительный gRPC сервис.
func (s *Server) RegisterService(registerFn func(server *grpc.Server)) {
	registerFn(s.server)
}
