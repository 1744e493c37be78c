// Command cachingd runs the payload caching service: an HTTP API over a
// content-addressed, two-tier cache with single-flight computation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/libintegration/cachingsvc/api"
	"github.com/libintegration/cachingsvc/cache"
	"github.com/libintegration/cachingsvc/coalesce"
	"github.com/libintegration/cachingsvc/config"
	"github.com/libintegration/cachingsvc/controller"
	"github.com/libintegration/cachingsvc/health"
	"github.com/libintegration/cachingsvc/limit"
	"github.com/libintegration/cachingsvc/observe"
	"github.com/libintegration/cachingsvc/store"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "cachingd:", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("cachingd", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "path to a HuJSON config file")
	listenAddr := flags.String("listen", "", "listen address (overrides config)")
	storeBackend := flags.String("store", "", "durable store backend: memory or file (overrides config)")
	dataDir := flags.String("data-dir", "", "directory for the file store backend (overrides config)")
	logLevel := flags.String("log-level", "", "log level: debug, info, warn or error (overrides config)")
	showVersion := flags.Bool("version", false, "print the version and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	if *showVersion {
		fmt.Println("cachingd", version)
		return nil
	}

	cfg, err := config.Load(*configPath, os.Environ())
	if err != nil {
		return err
	}

	// Flags win over file and environment.
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *storeBackend != "" {
		cfg.StoreBackend = *storeBackend
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs, err := observe.NewObserver(ctx, observe.Config{
		ServiceName: "cachingsvc",
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   cfg.Telemetry.TracingExporter != "" && cfg.Telemetry.TracingExporter != "none",
			Exporter:  cfg.Telemetry.TracingExporter,
			SamplePct: cfg.Telemetry.TracingSample,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  cfg.Telemetry.MetricsExporter != "" && cfg.Telemetry.MetricsExporter != "none",
			Exporter: cfg.Telemetry.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   cfg.LogLevel,
		},
	})
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	logger := obs.Logger()

	durable, err := buildStore(cfg)
	if err != nil {
		return err
	}

	metrics, err := observe.NewMetrics(obs.Meter())
	if err != nil {
		return fmt.Errorf("metrics setup: %w", err)
	}

	fast := cache.NewMemoryCache()
	ctrl := controller.New(controller.Config{
		Fast:  fast,
		Store: durable,
		Coalesce: coalesce.Config{
			Lease:        cfg.CoalesceLease.Std(),
			MaxWait:      cfg.CoalesceMaxWait.Std(),
			PollInterval: cfg.CoalescePoll.Std(),
		},
		Logger:  logger,
		Metrics: metrics,
		Tracer:  observe.NewTracer(obs.Tracer()),
	})

	agg := health.NewAggregator(
		health.StoreChecker(durable),
		health.FastCacheChecker(fast),
	)

	var limiter *limit.Limiter
	if cfg.RateLimit > 0 || cfg.MaxConcurrent > 0 {
		limiter = limit.New(limit.Config{
			Rate:          cfg.RateLimit,
			Burst:         cfg.RateBurst,
			MaxConcurrent: cfg.MaxConcurrent,
		})
	}

	srv := api.NewServer(api.Config{Addr: cfg.ListenAddr, Limiter: limiter}, ctrl, agg, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info(ctx, "service started",
		observe.String("addr", cfg.ListenAddr),
		observe.String("store", cfg.StoreBackend),
		observe.String("version", version))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// buildStore constructs the durable tier selected by the configuration.
func buildStore(cfg config.Config) (store.DurableStore, error) {
	switch cfg.StoreBackend {
	case "file":
		fs, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("file store at %s: %w", cfg.DataDir, err)
		}
		return fs, nil
	default:
		return store.NewMemoryStore(), nil
	}
}
