// Package main is a runnable example of the catcher package. It wires config,
// logging, telemetry and a Catcher using samber/do v2, then runs the named
// scenarios (all of them when none are given) and prints one line per
// scenario.
//
//	APP_PROFILE=local go run ./cmd/catchdemo raise mutate
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/samber/do/v2"

	"github.com/jsamuelsen11/go-catcher/internal/platform/config"
	"github.com/jsamuelsen11/go-catcher/internal/platform/logging"
	"github.com/jsamuelsen11/go-catcher/internal/platform/telemetry"
	"github.com/jsamuelsen11/go-catcher/pkg/catcher"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const otelShutdownTimeout = 5 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	profile := os.Getenv("APP_PROFILE")
	if profile == "" {
		return errors.New("APP_PROFILE environment variable is required (e.g. local, prod)")
	}

	selected, err := selectScenarios(args)
	if err != nil {
		return err
	}

	// Bootstrap: config, logger, telemetry.
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx := context.Background()
	otel, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	// DI container.
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, otel.metrics)

	registerDependencies(injector)

	c, err := do.Invoke[*catcher.Catcher](injector)
	if err != nil {
		return fmt.Errorf("resolving catcher: %w", err)
	}

	runScenarios(logging.WithLogger(ctx, logger), c, selected, os.Stdout, logger)

	// Flush telemetry.
	otelCtx, otelCancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
	defer otelCancel()

	if err := otel.Shutdown(otelCtx); err != nil {
		logger.Error("telemetry shutdown error", slog.Any("error", err))
	}

	return nil
}

// otelProviders bundles OpenTelemetry provider lifecycle. All fields are nil
// when telemetry is disabled.
type otelProviders struct {
	tracer  *sdktrace.TracerProvider
	meter   *sdkmetric.MeterProvider
	metrics *telemetry.Metrics
}

// Shutdown flushes both providers. Nil-safe.
func (o *otelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if o.tracer != nil {
		if err := o.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if o.meter != nil {
		if err := o.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

func initTelemetry(ctx context.Context, cfg *config.Config) (*otelProviders, error) {
	if !cfg.Telemetry.Enabled {
		return &otelProviders{}, nil
	}

	tp, err := telemetry.InitTracer(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	mp, err := telemetry.InitMeter(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("init meter: %w", err)
	}

	metrics, err := telemetry.NewMetrics(mp)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	return &otelProviders{
		tracer:  tp,
		meter:   mp,
		metrics: metrics,
	}, nil
}

func registerDependencies(injector *do.RootScope) {
	do.Provide(injector, func(i do.Injector) (*catcher.Catcher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*slog.Logger](i)
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		return newCatcher(cfg.Catcher, logger, metrics), nil
	})
}

// newCatcher maps CatcherConfig onto catcher options. metrics may be nil.
func newCatcher(cfg config.CatcherConfig, logger *slog.Logger, metrics *telemetry.Metrics) *catcher.Catcher {
	opts := []catcher.Option{
		catcher.WithStack(cfg.CaptureStack),
		catcher.WithStackLimit(cfg.StackLimit),
	}
	if cfg.LogTrapped {
		opts = append(opts, catcher.WithLogger(logger))
	}
	if cfg.PassthroughRuntimeErrors {
		opts = append(opts, catcher.WithPassthrough(catcher.RuntimeErrors))
	}
	if metrics != nil {
		opts = append(opts, catcher.WithObserver(metrics))
	}
	return catcher.New(opts...)
}
