package handler

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the service name accepted by Check besides "" (overall server health).
const ServiceName = "user-registry"

// pingTimeout bounds a single readiness probe.
const pingTimeout = 2 * time.Second

// Pinger is used for readiness (e.g. the user store or *pgxpool.Pool).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server implements grpc.health.v1.Health for readiness.
type Server struct {
	grpc_health_v1.UnimplementedHealthServer
	pinger Pinger
}

// NewServer returns a new Health gRPC server. pinger may be nil; then Check always reports SERVING.
func NewServer(pinger Pinger) *Server {
	return &Server{pinger: pinger}
}

// Check returns SERVING when the store answers a ping, NOT_SERVING otherwise.
func (s *Server) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	if svc := req.GetService(); svc != "" && svc != ServiceName {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", svc)
	}
	resp := &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}
	if !s.ready(ctx) {
		resp.Status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	return resp, nil
}

func (s *Server) ready(ctx context.Context) bool {
	if s.pinger == nil {
		return true
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return s.pinger.Ping(pingCtx) == nil
}
