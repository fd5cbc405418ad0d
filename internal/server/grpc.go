package server

import (
	"context"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"teamhub/backend/internal/logger"
)

// NewGRPCServer returns a gRPC server exposing the standard health service, traced with otelgrpc.
func NewGRPCServer(health healthpb.HealthServer) *grpc.Server {
	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(LoggingUnary(map[string]bool{
			healthpb.Health_Check_FullMethodName: true,
		})),
	)
	RegisterServices(s, health)
	return s
}

// RegisterServices registers the gRPC services with s.
func RegisterServices(s grpc.ServiceRegistrar, health healthpb.HealthServer) {
	healthpb.RegisterHealthServer(s, health)
}

// LoggingUnary logs each RPC's method, status code and duration. Methods in skipMethods
// (e.g. frequent health probes) are logged at debug level.
func LoggingUnary(skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		l := logger.Named("grpc")
		switch {
		case skipMethods[info.FullMethod]:
			l.Debug("rpc completed", fields...)
		case err != nil:
			l.Warn("rpc failed", append(fields, zap.Error(err))...)
		default:
			l.Info("rpc completed", fields...)
		}
		return resp, err
	}
}
