// Command resource-gateway serves the compiled-in provider registry
// over gRPC: a health status per registered provider kind and server
// reflection for probing. Providers register through package init, so a
// blank import compiles them in.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/nucleus/resource-core/internal/config"
	"github.com/nucleus/resource-core/pkg/resource"

	_ "github.com/nucleus/resource-core/internal/provider/memory"
	_ "github.com/nucleus/resource-core/internal/provider/object"
	_ "github.com/nucleus/resource-core/internal/provider/rest"
	_ "github.com/nucleus/resource-core/internal/provider/sqldb"
)

func main() {
	cfg := config.LoadGatewayConfig()
	port := flag.Int("port", cfg.Port, "gRPC server port")
	flag.Parse()

	// A deployment that ships a manifest fails fast when it declares a
	// provider this binary does not carry.
	if cfg.ManifestPath != "" {
		manifest, err := resource.LoadManifest(cfg.ManifestPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "manifest: %v\n", err)
			os.Exit(1)
		}
		if err := manifest.Verify(); err != nil {
			fmt.Fprintf(os.Stderr, "manifest: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Manifest %s verified: %d resources\n", cfg.ManifestPath, len(manifest.Resources))
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, *port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to listen: %v\n", err)
		os.Exit(1)
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			loggingInterceptor,
			recoveryInterceptor,
		),
	)

	// Health: the overall service plus one status per provider kind,
	// so an orchestrator can probe for a specific backend.
	healthSvc := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthSvc)
	healthSvc.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	kinds := resource.LinkedServices().Kinds()
	for _, kind := range kinds {
		healthSvc.SetServingStatus("resource.provider."+kind, grpc_health_v1.HealthCheckResponse_SERVING)
	}

	// Reflection for debugging
	reflection.Register(server)

	go func() {
		fmt.Printf("Resource gateway listening on %s (%d provider kinds)\n", addr, len(kinds))
		if err := server.Serve(lis); err != nil {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ShutdownTimeoutSecs)*time.Second)
	defer cancel()

	healthSvc.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	// Wait for drain
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-ctx.Done():
		fmt.Println("Timeout, forcing stop")
		server.Stop()
	case <-stopped:
		fmt.Println("Server stopped gracefully")
	}
}

// loggingInterceptor logs each RPC call
func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	duration := time.Since(start)

	status := "OK"
	if err != nil {
		status = "ERROR"
	}

	fmt.Printf("[%s] %s %s (%v)\n", status, info.FullMethod, duration, err)
	return resp, err
}

// recoveryInterceptor recovers from panics
func recoveryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC in %s: %v\n", info.FullMethod, r)
			err = fmt.Errorf("internal server error")
		}
	}()
	return handler(ctx, req)
}
