package vision

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthConfig holds configuration for the model server's gRPC health endpoint.
type HealthConfig struct {
	Address string        // gRPC server address, e.g., "localhost:50051"
	Service string        // Service name to check, "" for the whole server
	Timeout time.Duration // Per-check timeout
}

// Dial creates a new gRPC client connection from config.
// Caller is responsible for closing the connection.
func Dial(cfg HealthConfig) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(
		cfg.Address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("vision: failed to dial %s: %w", cfg.Address, err)
	}
	return conn, nil
}

// HealthProbe checks model server readiness over the standard gRPC health protocol.
type HealthProbe struct {
	config HealthConfig
	conn   *grpc.ClientConn
	client healthpb.HealthClient
}

// NewHealthProbe dials the model server.
func NewHealthProbe(cfg HealthConfig) (*HealthProbe, error) {
	conn, err := Dial(cfg)
	if err != nil {
		return nil, err
	}
	return &HealthProbe{
		config: cfg,
		conn:   conn,
		client: healthpb.NewHealthClient(conn),
	}, nil
}

// Ping returns nil when the model server reports SERVING.
func (p *HealthProbe) Ping(ctx context.Context) error {
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}
	resp, err := p.client.Check(ctx, &healthpb.HealthCheckRequest{Service: p.config.Service})
	if err != nil {
		return fmt.Errorf("vision health check failed: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("vision service unhealthy: %s", resp.GetStatus())
	}
	return nil
}

// Close closes the gRPC connection.
func (p *HealthProbe) Close() error {
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
