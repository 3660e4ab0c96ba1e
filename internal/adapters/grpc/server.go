package grpc

import (
	"context"

	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/application"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/domain"
)

// StorefrontDataInternalServer exposes the mesh-standard gRPC health
// probe, answering from the monitor's composite snapshot.
type StorefrontDataInternalServer struct {
	grpc_health_v1.UnimplementedHealthServer
	service *application.Service
}

func NewStorefrontDataInternalServer(service *application.Service) *StorefrontDataInternalServer {
	return &StorefrontDataInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc *StorefrontDataInternalServer) {
	grpc_health_v1.RegisterHealthServer(server, svc)
}

func (s *StorefrontDataInternalServer) Check(ctx context.Context, _ *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	snapshot, err := s.service.GetHealth(ctx)
	if err != nil || snapshot.Overall == domain.StatusUnhealthy {
		return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}, nil
}

func (s *StorefrontDataInternalServer) Watch(*grpc_health_v1.HealthCheckRequest, grpc_health_v1.Health_WatchServer) error {
	_ = s.service
	return nil
}
