// Package health exposes a gRPC health endpoint that tracks database
// reachability, for liveness and readiness probes.
package health

import (
	"context"
	"database/sql"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/verdantlab/floraid/internal/logging"
)

const pingInterval = 10 * time.Second

// Server serves grpc.health.v1.Health on its own port. The reported status
// follows a periodic database ping.
type Server struct {
	address string
	db      *sql.DB
	logger  logging.Logger
}

func NewServer(address string, db *sql.DB, logger logging.Logger) *Server {
	return &Server{
		address: address,
		db:      db,
		logger:  logger.With("module", "health_server"),
	}
}

func (s *Server) watch(ctx context.Context, hs *health.Server) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		status := healthpb.HealthCheckResponse_SERVING
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn(ctx, "database ping failed", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus("", status)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	go s.watch(ctx, hs)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping health server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting health server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
