package grpc_control

import (
	"context"
	"net"
	"time"

	"market-backfill/src/interfaces"
	"market-backfill/src/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// StoreService is the health service name that tracks the bar store.
const StoreService = "market-backfill.store"

// HealthService publishes process and store health over the standard gRPC
// health protocol.
type HealthService struct {
	Health *health.Server
	Store  interfaces.IBarStore
	Logger *logger.Logger
	server *grpc.Server
}

// NewHealthService registers the health server on a fresh grpc.Server.
func NewHealthService(store interfaces.IBarStore, log *logger.Logger) *HealthService {
	hs := &HealthService{
		Health: health.NewServer(),
		Store:  store,
		Logger: log,
		server: grpc.NewServer(),
	}
	healthpb.RegisterHealthServer(hs.server, hs.Health)
	hs.Health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.Health.SetServingStatus(StoreService, healthpb.HealthCheckResponse_SERVING)
	return hs
}

// -----------------------------------------------------------------------------

// CheckStore probes the store with a cheap query and updates StoreService.
func (hs *HealthService) CheckStore(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := hs.Store.TopSymbols(ctx, 1); err != nil {
		hs.Logger.Warning("Store health check failed: %v", err)
		hs.Health.SetServingStatus(StoreService, healthpb.HealthCheckResponse_NOT_SERVING)
		return false
	}
	hs.Health.SetServingStatus(StoreService, healthpb.HealthCheckResponse_SERVING)
	return true
}

// -----------------------------------------------------------------------------

// Serve blocks on lis, probing the store every interval until ctx is done.
func (hs *HealthService) Serve(ctx context.Context, lis net.Listener, interval time.Duration) error {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				hs.Health.Shutdown()
				hs.server.GracefulStop()
				return
			case <-ticker.C:
				hs.CheckStore(ctx)
			}
		}
	}()

	hs.Logger.Info("gRPC health service listening on %s", lis.Addr())
	return hs.server.Serve(lis)
}
