package grpcserver

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/tkubota31/express-messagely/pkg/health"
	"github.com/tkubota31/express-messagely/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func TestHealthFollowsChecker(t *testing.T) {
	checker := health.NewChecker(logger.Nop(), time.Minute, "test")
	var dbErr error
	checker.RegisterDatabaseCheck(func(context.Context) error { return dbErr })

	srv := New(checker, logger.Nop())
	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	defer srv.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		require.NoError(t, err)
		return resp.Status
	}

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check())

	checker.RunChecks(ctx)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check())

	dbErr = errors.New("down")
	checker.RunChecks(ctx)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check())
}
