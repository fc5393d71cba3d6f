package observability

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/GoSim-25-26J-441/netgen/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// BatchService is the health service name reported while a batch runs
const BatchService = "netgen.Batch"

// Server hosts the optional gRPC health endpoint and the HTTP metrics endpoint
type Server struct {
	grpc    *grpc.Server
	health  *health.Server
	metrics *http.Server
	logger  *slog.Logger
}

// NewServer creates a server whose metrics endpoint serves g
func NewServer(g prometheus.Gatherer, l *slog.Logger) *Server {
	if l == nil {
		l = logger.Default
	}
	hs := health.NewServer()
	hs.SetServingStatus(BatchService, healthpb.HealthCheckResponse_NOT_SERVING)

	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(g))

	return &Server{
		grpc:   gs,
		health: hs,
		metrics: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		logger: l,
	}
}

// SetServing flips the batch service between SERVING and NOT_SERVING
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(BatchService, status)
}

// ServeHealth serves gRPC health checks on lis until Shutdown
func (s *Server) ServeHealth(lis net.Listener) {
	go func() {
		s.logger.Info("health server listening", "addr", lis.Addr().String())
		if err := s.grpc.Serve(lis); err != nil {
			s.logger.Error("health server error", "error", err)
		}
	}()
}

// ServeMetrics serves /metrics on lis until Shutdown
func (s *Server) ServeMetrics(lis net.Listener) {
	go func() {
		s.logger.Info("metrics server listening", "addr", lis.Addr().String())
		if err := s.metrics.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server error", "error", err)
		}
	}()
}

// Shutdown stops both endpoints
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()
	s.grpc.GracefulStop()
	return s.metrics.Shutdown(ctx)
}
