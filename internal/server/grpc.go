package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported alongside the overall status.
const ServiceName = "otpauth"

// RegisterServices registers the gRPC services with s. Only grpc.health.v1 is served; the auth API is HTTP.
func RegisterServices(s grpc.ServiceRegistrar, hs *health.Server) {
	if hs == nil {
		return
	}
	healthpb.RegisterHealthServer(s, hs)
}

// NewGRPCServer returns a gRPC server instrumented with otelgrpc and serving hs.
func NewGRPCServer(hs *health.Server, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.StatsHandler(otelgrpc.NewServerHandler())}, opts...)
	s := grpc.NewServer(opts...)
	RegisterServices(s, hs)
	return s
}
