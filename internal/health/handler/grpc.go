// Package handler reports readiness over the gRPC health protocol and a plain HTTP probe.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"teamhub/backend/internal/logger"
	"teamhub/backend/internal/platform/httpx"
)

const checkTimeout = 3 * time.Second

// Pinger checks store connectivity. Implemented by docstore.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PolicyChecker checks that the authorization policy can be evaluated. Implemented by *engine.OPAEvaluator.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server owns the gRPC health status. The overall status ("") is SERVING only when the last
// check passed. A nil pinger or policy checker is skipped.
type Server struct {
	pinger Pinger
	policy PolicyChecker
	health *health.Server
}

// NewServer returns a Server whose status starts as NOT_SERVING until the first Check.
func NewServer(pinger Pinger, policy PolicyChecker) *Server {
	s := &Server{pinger: pinger, policy: policy, health: health.NewServer()}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// GRPC returns the health service to register on a grpc.Server.
func (s *Server) GRPC() healthpb.HealthServer { return s.health }

// Check runs every dependency check and records the resulting serving status.
func (s *Server) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	var errs []error
	if s.pinger != nil {
		if err := s.pinger.Ping(ctx); err != nil {
			errs = append(errs, errors.Join(errors.New("store"), err))
		}
	}
	if s.policy != nil {
		if err := s.policy.HealthCheck(ctx); err != nil {
			errs = append(errs, errors.Join(errors.New("policy"), err))
		}
	}
	err := errors.Join(errs...)
	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	return err
}

// Run checks once immediately and then every interval until ctx is done, then marks the
// service NOT_SERVING for the remainder of shutdown.
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := s.Check(ctx); err != nil && ctx.Err() == nil {
			logger.L().Warn("health check failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			return
		case <-ticker.C:
		}
	}
}

// ServeHTTP answers the HTTP readiness probe with a fresh check.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := s.Check(r.Context()); err != nil {
		logger.From(r.Context()).Warn("readiness probe failed", zap.Error(err))
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": healthpb.HealthCheckResponse_NOT_SERVING.String()})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": healthpb.HealthCheckResponse_SERVING.String()})
}
