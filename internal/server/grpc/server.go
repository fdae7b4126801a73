// Package grpc is the gRPC boundary of the auth server. It exposes the
// authentication operations, normalises inbound credentials and maps core
// errors to gRPC statuses.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gqlauth/internal/logging"
	"github.com/dmitrijs2005/gqlauth/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

type GRPCServer struct {
	address string
	users   *services.UserService
	tokens  *services.TokenService
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, us *services.UserService, ts *services.TokenService) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		users:   us,
		tokens:  ts,
	}
}

// newServer builds the grpc.Server with the auth and health services
// registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.authInterceptor))

	RegisterAuthServiceServer(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus(AuthServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(srv, hs)

	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gPRC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
