package provider

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCHealthChecker probes a backend through the standard gRPC health protocol
type GRPCHealthChecker struct {
	endpoint string
	timeout  time.Duration
	conn     *grpc.ClientConn
	client   grpc_health_v1.HealthClient
}

// NewGRPCHealthChecker creates a lazily connecting health client for endpoint.
// Extra dial options are appended after the insecure transport credentials.
func NewGRPCHealthChecker(endpoint string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCHealthChecker, error) {
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(endpoint, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client for %s: %w", endpoint, err)
	}

	return &GRPCHealthChecker{
		endpoint: endpoint,
		timeout:  timeout,
		conn:     conn,
		client:   grpc_health_v1.NewHealthClient(conn),
	}, nil
}

// Endpoint returns the address being probed
func (g *GRPCHealthChecker) Endpoint() string {
	return g.endpoint
}

// Ping asks the backend for its overall serving status
func (g *GRPCHealthChecker) Ping(ctx context.Context) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("health check against %s failed: %w", g.endpoint, err)
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		return fmt.Errorf("backend %s reports %s", g.endpoint, resp.GetStatus())
	}
	return nil
}

// Close releases the underlying connection
func (g *GRPCHealthChecker) Close() error {
	return g.conn.Close()
}
