package grpcserver

import (
	"fmt"
	"net"

	"github.com/tkubota31/express-messagely/pkg/health"
	"github.com/tkubota31/express-messagely/pkg/logger"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the service reported alongside the overall ("") status
const ServiceName = "messagely.v1.Messages"

// Server exposes grpc.health.v1 backed by the health checker
type Server struct {
	grpc   *grpc.Server
	health *grpchealth.Server
	log    *logger.Logger
}

// New creates the gRPC server and subscribes it to checker updates
func New(checker *health.Checker, log *logger.Logger) *Server {
	if log == nil {
		log = logger.GetGlobal()
	}

	s := &Server{
		grpc:   grpc.NewServer(),
		health: grpchealth.NewServer(),
		log:    log.WithComponent("grpc"),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)

	// NOT_SERVING until the first check run reports in
	s.SetServing(false)
	checker.OnUpdate(s.SetServing)

	return s
}

// SetServing flips the reported status of both the overall and the named service
func (s *Server) SetServing(healthy bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if healthy {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Serve blocks serving on lis
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("gRPC health server listening", "addr", lis.Addr().String())
	if err := s.grpc.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// ListenAndServe listens on the TCP port and serves
func (s *Server) ListenAndServe(port string) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.Serve(lis)
}

// Stop drains the server and marks it not serving
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
