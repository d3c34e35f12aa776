// Package main implements the entry point for the sportscache service: a
// locale-aware cache of sports feed entities with a NATS ingestion stream
// and an operational HTTP gateway.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/sportscache/cache"
	"github.com/c360/sportscache/config"
	"github.com/c360/sportscache/errors"
	"github.com/c360/sportscache/feed"
	"github.com/c360/sportscache/gateway"
	"github.com/c360/sportscache/health"
	"github.com/c360/sportscache/ingest"
	"github.com/c360/sportscache/metric"
	"github.com/c360/sportscache/natsclient"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "sportscache"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx := context.Background()

	metricsRegistry := metric.NewMetricsRegistry()
	monitor := health.NewMonitor()

	natsClient, err := connectNATS(ctx, cfg, monitor, metricsRegistry)
	if err != nil {
		return err
	}
	defer func() { _ = natsClient.Close(ctx) }()

	app, err := buildApplication(ctx, cfg, appDeps{
		logger:  logger,
		client:  natsClient,
		monitor: monitor,
		metrics: metricsRegistry,
	})
	if err != nil {
		return err
	}

	return runWithSignalHandling(ctx, app, cliCfg.ShutdownTimeout)
}

// initializeCLI parses flags and sets up logging.
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting sportscache",
		"version", Version,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// connectNATS creates the client with health and metrics callbacks wired and
// establishes the connection.
func connectNATS(
	ctx context.Context,
	cfg *config.Config,
	monitor *health.Monitor,
	metricsRegistry *metric.MetricsRegistry,
) (*natsclient.Client, error) {
	coreMetrics := metricsRegistry.CoreMetrics()

	client, err := natsclient.NewClient(cfg.NATS.URL,
		natsclient.WithName(cfg.NATS.Name),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithReconnectWait(cfg.NATS.ReconnectWait.Std()),
		natsclient.WithConnectTimeout(cfg.NATS.ConnectTimeout.Std()),
		natsclient.WithDrainTimeout(cfg.NATS.DrainTimeout.Std()),
		natsclient.WithHealthChangeCallback(func(healthy bool) {
			coreMetrics.RecordNATSStatus(healthy)
			if healthy {
				monitor.UpdateHealthy("nats", "connected")
			} else {
				monitor.UpdateUnhealthy("nats", "disconnected")
			}
		}),
		natsclient.WithReconnectCallback(func() {
			coreMetrics.RecordNATSReconnect()
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	slog.Info("Connecting to NATS", "url", cfg.NATS.URL)
	connectCtx, cancel := context.WithTimeout(ctx, cfg.NATS.ConnectTimeout.Std())
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return client, nil
}

// appDeps bundles the shared infrastructure handed to every component.
type appDeps struct {
	logger  *slog.Logger
	client  *natsclient.Client
	monitor *health.Monitor
	metrics *metric.MetricsRegistry
}

// application holds the running components for ordered shutdown.
type application struct {
	cfg        *config.Config
	deps       appDeps
	cache      *cache.ProfileCache
	categories *cache.CategoryCache
	ingestor   *ingest.Ingestor
	gateway    *gateway.Server
}

// buildApplication wires fetcher, caches, ingestion and gateway together.
func buildApplication(ctx context.Context, cfg *config.Config, deps appDeps) (*application, error) {
	policy, err := cache.ParseFailurePolicy(cfg.Cache.FailurePolicy)
	if err != nil {
		return nil, fmt.Errorf("parse failure policy: %w", err)
	}

	retryCfg := errors.RetryConfig{
		MaxRetries:    cfg.Fetch.MaxRetries,
		InitialDelay:  cfg.Fetch.RetryWait.Std(),
		MaxDelay:      cfg.Fetch.Timeout.Std(),
		BackoffFactor: 2.0,
	}
	fetcher := feed.NewNATSFetcher(deps.client, retryCfg.ToRetryConfig())

	events := cache.NewEventPublisher(deps.client, deps.logger)

	profileCache, err := cache.New(ctx, fetcher,
		cache.WithTTL(cfg.Cache.ProfileTTL.Std()),
		cache.WithSweepInterval(cfg.Cache.SweepInterval.Std()),
		cache.WithFailurePolicy(policy),
		cache.WithFetchTimeout(cfg.Fetch.Timeout.Std()),
		cache.WithLogger(deps.logger),
		cache.WithMetrics(deps.metrics),
		cache.WithEvents(events),
	)
	if err != nil {
		return nil, fmt.Errorf("create profile cache: %w", err)
	}
	deps.monitor.UpdateHealthy("cache", "store ready")

	categories := cache.NewCategoryCache(fetcher, policy, deps.logger)

	ingestor := ingest.New(deps.client, profileCache.Router(), deps.logger, deps.monitor)
	if err := ingestor.Start(ctx); err != nil {
		_ = profileCache.Close()
		return nil, fmt.Errorf("start ingestion: %w", err)
	}

	app := &application{
		cfg:        cfg,
		deps:       deps,
		cache:      profileCache,
		categories: categories,
		ingestor:   ingestor,
	}

	if cfg.Gateway.Enabled {
		gw, err := gateway.New(gateway.Config{
			Addr:       cfg.Gateway.Addr,
			Cache:      profileCache,
			Categories: categories,
			Monitor:    deps.monitor,
			Metrics:    deps.metrics,
			NATSClient: deps.client,
			Logger:     deps.logger,
		})
		if err != nil {
			app.shutdown(ctx)
			return nil, fmt.Errorf("create gateway: %w", err)
		}
		if err := gw.Start(ctx); err != nil {
			app.shutdown(ctx)
			return nil, fmt.Errorf("start gateway: %w", err)
		}
		app.gateway = gw
	}

	return app, nil
}

// shutdown stops the components in reverse start order.
func (a *application) shutdown(ctx context.Context) {
	if a.gateway != nil {
		if err := a.gateway.Stop(ctx); err != nil {
			slog.Error("Gateway shutdown failed", "error", err)
		}
	}
	if err := a.ingestor.Stop(); err != nil {
		slog.Warn("Ingestor stop", "error", err)
	}
	if err := a.cache.Close(); err != nil {
		slog.Error("Cache close failed", "error", err)
	}
}

// runWithSignalHandling blocks until SIGINT/SIGTERM and then shuts down
// within the timeout.
func runWithSignalHandling(ctx context.Context, app *application, shutdownTimeout time.Duration) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	slog.Info("sportscache started",
		"locales", app.cfg.Cache.DesiredLocales,
		"failure_policy", app.cfg.Cache.FailurePolicy,
		"gateway_enabled", app.cfg.Gateway.Enabled)

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	app.shutdown(shutdownCtx)

	slog.Info("sportscache shutdown complete")
	return nil
}
