package server

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/anonchat/internal/config"
	"github.com/oggyb/anonchat/internal/logger"
)

// NewGRPCServer builds a gRPC server and registers all provided services.
// When AUTH_JWT_SECRET is set every call needs a bearer token.
func NewGRPCServer(cfg *config.Config, adminMethods map[string]bool, registrars ...Registrar) *grpc.Server {
	var opts []grpc.ServerOption
	if cfg.Auth.JWTSecret != "" {
		opts = append(opts, grpc.UnaryInterceptor(AuthInterceptor(cfg.Auth.JWTSecret, adminMethods)))
	} else {
		logger.Warn("AUTH_JWT_SECRET not set, gRPC API is unauthenticated")
	}

	grpcServer := grpc.NewServer(opts...)

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)
	return grpcServer
}

// StartGRPCServer serves until ctx is cancelled, then stops gracefully.
func StartGRPCServer(ctx context.Context, cfg *config.Config, grpcServer *grpc.Server) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	return grpcServer.Serve(lis)
}
