package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haukened/rr-doh/internal/dns/common/clock"
	"github.com/haukened/rr-doh/internal/dns/common/log"
	"github.com/haukened/rr-doh/internal/dns/config"
	"github.com/haukened/rr-doh/internal/dns/gateways/transport"
	"github.com/haukened/rr-doh/internal/dns/gateways/upstream"
	"github.com/haukened/rr-doh/internal/dns/gateways/wire"
	"github.com/haukened/rr-doh/internal/dns/services/resolver"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "rr-dohd"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds all the components of the bridge
type Application struct {
	config    *config.AppConfig
	transport *transport.UDPTransport
	resolver  *resolver.Resolver
	upstream  *upstream.Resolver
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"app":          appName,
		"version":      version,
		"env":          cfg.Env,
		"log_level":    cfg.LogLevel,
		"bind":         cfg.Bind,
		"upstream":     cfg.Upstream,
		"proxy":        cfg.Proxy != "",
		"timeout":      cfg.Timeout.String(),
		"max_inflight": cfg.MaxInflight,
	}, "Starting RR-DoH bridge")

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Bridge failed")
	}

	log.Info(nil, "RR-DoH bridge stopped gracefully")
}

// buildApplication constructs all components and wires them together.
// Nothing is bound here; an invalid upstream or proxy fails before the
// UDP socket is opened.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	logger := log.GetLogger()

	codec := wire.NewUDPCodec(log.Named(logger, "wire"))

	upstreamClient, err := upstream.NewResolver(upstream.Options{
		URL:     cfg.Upstream,
		Proxy:   cfg.Proxy,
		Timeout: cfg.Timeout,
		Codec:   codec,
		Logger:  log.Named(logger, "upstream"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream client: %w", err)
	}

	log.Info(map[string]any{
		"url":     upstreamClient.URL(),
		"timeout": cfg.Timeout.String(),
		"proxied": cfg.Proxy != "",
	}, "DoH upstream configured")

	resolverService := resolver.NewResolver(resolver.ResolverOptions{
		Clock:    &clock.RealClock{},
		Logger:   log.Named(logger, "resolver"),
		Upstream: upstreamClient,
	})

	udpTransport := transport.NewUDPTransport(cfg.Bind, codec, log.Named(logger, "transport"), cfg.MaxInflight)

	return &Application{
		config:    cfg,
		transport: udpTransport,
		resolver:  resolverService,
		upstream:  upstreamClient,
	}, nil
}

// Run starts the bridge and blocks until ctx is cancelled.
func (app *Application) Run(ctx context.Context) error {
	if err := app.transport.Start(ctx, app.resolver); err != nil {
		return fmt.Errorf("failed to start UDP transport: %w", err)
	}

	log.Info(map[string]any{
		"address":   app.transport.Address(),
		"transport": "UDP",
		"upstream":  app.upstream.URL(),
	}, "Bridge started")

	<-ctx.Done()

	log.Info(nil, "Shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	// Stop cancels in-flight handlers and waits for the read loop to exit.
	done := make(chan error, 1)
	go func() {
		done <- app.transport.Stop()
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Warn(map[string]any{"error": err}, "Error during transport shutdown")
		}
		log.Info(nil, "Graceful shutdown completed")
		return nil
	case <-shutdownCtx.Done():
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout.String()}, "Shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout")
	}
}
