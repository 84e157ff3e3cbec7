package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"devplatform/pkg/logger"
)

// MetadataRequestID - ключ метаданных с идентификатором запроса.
const MetadataRequestID = "x-request-id"

// RequestIDInterceptor переносит x-request-id из метаданных в контекст
// и логирует завершение вызова.
func RequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		var requestID string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(MetadataRequestID); len(values) > 0 {
				requestID = values[0]
			}
		}
		ctx = logger.NewRequestIDContext(ctx, requestID)

		start := time.Now()
		resp, err := handler(ctx, req)

		log := logger.Log(ctx).With(
			zap.String("grpc_method", info.FullMethod),
			zap.Duration("latency", time.Since(start)),
		)
		if err != nil {
			log.Warn(ctx, "gRPC call failed", zap.String("code", status.Code(err).String()), zap.Error(err))
		} else {
			log.Debug(ctx, "gRPC call completed")
		}
		return resp, err
	}
}
