package grpc_control

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"market-backfill/src/interfaces"
	"market-backfill/src/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type probeStore struct {
	interfaces.IBarStore
	err error
}

func (p *probeStore) TopSymbols(ctx context.Context, n int) ([]string, error) {
	return nil, p.err
}

func TestHealthService_ReportsStoreStatus(t *testing.T) {
	store := &probeStore{}
	hs := NewHealthService(store, logger.NewNop())

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hs.Serve(ctx, lis, time.Hour)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	store.err = errors.New("database is locked")
	assert.False(t, hs.CheckStore(ctx))

	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: StoreService})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}
