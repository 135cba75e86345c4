package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/airport/config"
	"github.com/Domenick1991/airport/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const healthCheckInterval = 15 * time.Second

// HealthCheck probes one dependency. Any failing check flips the overall
// gRPC health status to NOT_SERVING.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	health     *health.Server
	conn       *grpc.ClientConn
}

// Run starts the gRPC health server and the HTTP API (with the grpc-gateway
// /healthz endpoint) and blocks until ctx is canceled or a server fails.
func Run(ctx context.Context, cfg *config.Config, router *gin.Engine, checks ...HealthCheck) error {
	s, err := newServers(cfg, router)
	if err != nil {
		return err
	}
	defer s.conn.Close()

	errCh := make(chan error, 2)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}
	go func() { errCh <- s.grpcServer.Serve(lis) }()

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go watchHealth(ctx, s.health, healthCheckInterval, checks)

	logger.Get().Info("servers started", "http", cfg.HTTP.Address, "grpc", cfg.GRPC.Address)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Get().Info("shutting down servers")
		s.health.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		s.grpcServer.GracefulStop()
		return nil
	}
}

func newServers(cfg *config.Config, router *gin.Engine) (*Servers, error) {
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)

	conn, err := grpc.NewClient(cfg.GRPC.Address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial gRPC health %s: %w", cfg.GRPC.Address, err)
	}

	gateway := runtime.NewServeMux(runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)))
	router.GET("/healthz", gin.WrapH(gateway))

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: httpSrv,
		health:     healthSrv,
		conn:       conn,
	}, nil
}

func watchHealth(ctx context.Context, healthSrv *health.Server, interval time.Duration, checks []HealthCheck) {
	if len(checks) == 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		applyChecks(ctx, healthSrv, checks)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func applyChecks(ctx context.Context, healthSrv *health.Server, checks []HealthCheck) {
	status := healthpb.HealthCheckResponse_SERVING
	for _, hc := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := hc.Check(checkCtx)
		cancel()
		if err != nil {
			logger.Get().Warn("health check failed", "dependency", hc.Name, "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	healthSrv.SetServingStatus("", status)
}
