// Package server assembles the HTTP handler and the gRPC health server.
package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	healthhandler "user-registry/internal/health/handler"
)

// GRPCDeps holds optional dependencies for the gRPC server.
type GRPCDeps struct {
	// HealthPinger is used by the health service for readiness (e.g. the user store). If nil, Check always reports SERVING.
	HealthPinger healthhandler.Pinger
	// TracerProvider and MeterProvider feed the otelgrpc stats handler. nil uses the globals.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// NewGRPCServer returns a gRPC server instrumented with otelgrpc and with all services registered.
func NewGRPCServer(deps GRPCDeps, opts ...grpc.ServerOption) *grpc.Server {
	var otelOpts []otelgrpc.Option
	if deps.TracerProvider != nil {
		otelOpts = append(otelOpts, otelgrpc.WithTracerProvider(deps.TracerProvider))
	}
	if deps.MeterProvider != nil {
		otelOpts = append(otelOpts, otelgrpc.WithMeterProvider(deps.MeterProvider))
	}
	opts = append([]grpc.ServerOption{grpc.StatsHandler(otelgrpc.NewServerHandler(otelOpts...))}, opts...)
	s := grpc.NewServer(opts...)
	RegisterServices(s, deps)
	return s
}

// RegisterServices registers the gRPC services with the given server.
//
//   - grpc.health.v1.Health → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps GRPCDeps) {
	grpc_health_v1.RegisterHealthServer(s, healthhandler.NewServer(deps.HealthPinger))
}
