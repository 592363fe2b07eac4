package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"parking-allocator/internal/config"
	"parking-allocator/internal/events"
	"parking-allocator/internal/parking"
	"parking-allocator/internal/receipt"
	"parking-allocator/internal/server"
)

var (
	mode       = flag.String("mode", "", "Mode to run: cli, server, or both (overrides APP_MODE)")
	port       = flag.String("port", "", "Port for HTTP server (overrides APP_PORT)")
	layoutPath = flag.String("layout", "", "YAML lot layout (overrides PARKING_LAYOUT_PATH)")
)

type app struct {
	cfg       *config.Config
	telemetry *parking.TelemetryProvider
	lot       *parking.InstrumentedParkingLot
	hub       *events.Hub
	registry  *prometheus.Registry
}

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *layoutPath != "" {
		cfg.LayoutPath = *layoutPath
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go a.hub.Run(ctx)

	switch cfg.Mode {
	case "cli":
		a.runCLI(ctx, cancel, sigChan)
	case "server":
		a.runServer(ctx, cancel, sigChan)
	case "both":
		a.runBoth(ctx, cancel, sigChan)
	default:
		slog.Error("invalid mode, must be cli, server, or both", slog.String("mode", cfg.Mode))
	}

	a.shutdownTelemetry()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	telemetry, err := parking.NewTelemetryProvider(ctx, parking.TelemetryConfig{
		ServiceName:  cfg.OTelServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTelEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry: %w", err)
	}

	layout := parking.DefaultLayout()
	if cfg.LayoutPath != "" {
		layout, err = parking.LoadLayout(cfg.LayoutPath)
		if err != nil {
			return nil, err
		}
	}

	lot, err := parking.NewParkingLotFromLayout(cfg.LotID, layout,
		parking.WithPricingStrategy(pricingFor(cfg)))
	if err != nil {
		return nil, err
	}

	instrumented, err := parking.NewInstrumentedParkingLot(lot, telemetry)
	if err != nil {
		return nil, fmt.Errorf("instrument parking lot: %w", err)
	}

	hub := events.NewHub(telemetry.Logger())
	instrumented.SetReceiptStore(receipt.NewStore(cfg.ReceiptTTL))
	instrumented.SetPublisher(hub)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		parking.NewOccupancyCollector(lot),
	)

	return &app{
		cfg:       cfg,
		telemetry: telemetry,
		lot:       instrumented,
		hub:       hub,
		registry:  registry,
	}, nil
}

func pricingFor(cfg *config.Config) parking.PricingStrategy {
	base := parking.NewDefaultPricing()
	if cfg.PricingMode != "peak" {
		return base
	}
	return &parking.PeakPricing{
		Base:       base,
		Multiplier: cfg.PeakMultiplier,
		StartHour:  cfg.PeakStartHour,
		EndHour:    cfg.PeakEndHour,
	}
}

func (a *app) newServer() *server.Server {
	return server.NewServer(a.lot, server.Options{
		Port:            a.cfg.Port,
		ServiceName:     a.cfg.OTelServiceName,
		RateLimitPerSec: a.cfg.RateLimitPerSec,
		RateLimitBurst:  a.cfg.RateLimitBurst,
		Gatherer:        a.registry,
		Events:          a.hub.ServeWS,
		Logger:          a.telemetry.Logger(),
	})
}

func (a *app) runCLI(ctx context.Context, cancel context.CancelFunc, sigChan chan os.Signal) {
	go func() {
		<-sigChan
		slog.Info("shutting down")
		cancel()
	}()

	shell := parking.NewShell(a.lot, os.Stdin, os.Stdout)
	shell.Run(ctx)
}

func (a *app) runServer(ctx context.Context, cancel context.CancelFunc, sigChan chan os.Signal) {
	srv := a.newServer()

	go func() {
		<-sigChan
		slog.Info("received shutdown signal")
		shutdownServer(srv)
		cancel()
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", slog.String("error", err.Error()))
	}
}

func (a *app) runBoth(ctx context.Context, cancel context.CancelFunc, sigChan chan os.Signal) {
	srv := a.newServer()

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()

	cliDone := make(chan struct{})
	go func() {
		shell := parking.NewShell(a.lot, os.Stdin, os.Stdout)
		shell.Run(ctx)
		close(cliDone)
	}()

	go func() {
		<-sigChan
		slog.Info("received shutdown signal")
		cancel()
	}()

	select {
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.String("error", err.Error()))
		}
	case <-cliDone:
		slog.Info("CLI exited")
	case <-ctx.Done():
		slog.Info("context cancelled")
	}

	shutdownServer(srv)
}

func shutdownServer(srv *server.Server) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}
}

func (a *app) shutdownTelemetry() {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
		slog.Error("error shutting down telemetry", slog.String("error", err.Error()))
	}
}
