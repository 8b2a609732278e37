// =============================================================================
// Modelflow Telemetry Bootstrap
// =============================================================================
// Installs the OTel SDK as the global tracer and meter source so the
// instruments in llm/observability export over OTLP gRPC. With export
// disabled the globals stay on their noop defaults and no collector
// connection is ever opened.
// =============================================================================

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/modelflow-ai/modelflow/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

// Providers owns the SDK trace and metric pipelines built by Init. The
// zero value is inert: nothing exports and Shutdown is a no-op.
type Providers struct {
	tracer *sdktrace.TracerProvider
	meter  *sdkmetric.MeterProvider
}

// Active reports whether Init built real export pipelines.
func (p *Providers) Active() bool {
	return p != nil && p.tracer != nil
}

// Init wires OTLP trace and metric export against cfg and registers
// the result as the process-global providers. When cfg.Enabled is
// false it returns an inert Providers without dialing anything. Empty
// endpoint and service name fall back to the config defaults.
func Init(cfg config.TelemetryConfig, logger *zap.Logger) (*Providers, error) {
	if !cfg.Enabled {
		logger.Debug("otlp export disabled")
		return &Providers{}, nil
	}

	defaults := config.DefaultTelemetryConfig()
	if cfg.OTLPEndpoint == "" {
		cfg.OTLPEndpoint = defaults.OTLPEndpoint
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaults.ServiceName
	}

	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(releaseVersion()),
			semconv.ServiceInstanceID(uuid.NewString()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	tracer, err := newTracerPipeline(ctx, cfg, res)
	if err != nil {
		return nil, err
	}
	meter, err := newMeterPipeline(ctx, cfg, res)
	if err != nil {
		_ = tracer.Shutdown(ctx)
		return nil, err
	}

	otel.SetTracerProvider(tracer)
	otel.SetMeterProvider(meter)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("otlp export enabled",
		zap.String("endpoint", cfg.OTLPEndpoint),
		zap.String("service", cfg.ServiceName),
		zap.Float64("sample_ratio", cfg.SampleRate),
	)

	return &Providers{tracer: tracer, meter: meter}, nil
}

func newTracerPipeline(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("otlp trace exporter: %w", err)
	}

	ratio := cfg.SampleRate
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	), nil
}

func newMeterPipeline(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	exp, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("otlp metric exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	), nil
}

// Shutdown drains both pipelines. The two errors are joined so a
// failing metric flush does not hide a failing trace flush.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.tracer != nil {
		if err := p.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("trace pipeline: %w", err))
		}
	}
	if p.meter != nil {
		if err := p.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metric pipeline: %w", err))
		}
	}
	return errors.Join(errs...)
}

// releaseVersion resolves the module version the Go toolchain stamped
// into the binary, or "dev" for local builds.
func releaseVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}
