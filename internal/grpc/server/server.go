package server

import (
	"context"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/grpc/interceptors"
	hc "jobboard-gateway/internal/health"
	"jobboard-gateway/internal/logging"
)

// ServiceName is the health service name reported for the gateway as a whole
const ServiceName = "jobboard.v1.Gateway"

const defaultRefreshInterval = 15 * time.Second

// Server exposes grpc.health.v1 with statuses derived from the dependency checker
type Server struct {
	cfg     *config.Config
	checker *hc.Checker
	logger  logging.Logger

	grpcServer *grpc.Server
	health     *health.Server
	interval   time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

func NewServer(cfg *config.Config, checker *hc.Checker, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.WithField("component", "grpc")

	grpcServer := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.ChainUnaryInterceptor(
			interceptors.RecoveryInterceptor(logger),
			interceptors.LoggingInterceptor(logger),
		),
		grpc.ChainStreamInterceptor(
			interceptors.StreamRecoveryInterceptor(logger),
			interceptors.StreamLoggingInterceptor(logger),
		),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	return &Server{
		cfg:        cfg,
		checker:    checker,
		logger:     logger,
		grpcServer: grpcServer,
		health:     healthServer,
		interval:   defaultRefreshInterval,
		stop:       make(chan struct{}),
	}
}

// Start refreshes health once, keeps refreshing it in the background and
// serves on lis until Stop
func (s *Server) Start(lis net.Listener) error {
	s.Refresh(context.Background())
	go s.refreshLoop()

	s.logger.Info("Starting gRPC server", map[string]interface{}{"address": lis.Addr().String()})
	return s.grpcServer.Serve(lis)
}

// Refresh runs the checker and publishes the result. The empty service name
// and ServiceName follow overall readiness; each probe is also published
// under its own name.
func (s *Server) Refresh(ctx context.Context) {
	report := s.checker.Check(ctx)

	overall := healthpb.HealthCheckResponse_SERVING
	if !report.Ready {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", overall)
	s.health.SetServingStatus(ServiceName, overall)

	for name, result := range report.Checks {
		st := healthpb.HealthCheckResponse_SERVING
		if result != "ok" {
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
		s.health.SetServingStatus(name, st)
	}
}

func (s *Server) refreshLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Refresh(context.Background())
		}
	}
}

// Stop marks every service NOT_SERVING and drains in-flight calls
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Shutting down gRPC server...")
		close(s.stop)
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
	})
}
