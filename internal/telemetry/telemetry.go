package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Config controls metrics setup.
type Config struct {
	// ServiceName identifies this service in exported metrics.
	ServiceName string

	// ServiceVersion is the version string for this service.
	ServiceVersion string

	// Enabled installs the meter provider. When false the global meter
	// stays a no-op.
	Enabled bool
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Enabled && c.ServiceName == "" {
		return fmt.Errorf("service name is required when telemetry is enabled")
	}
	return nil
}

// Telemetry owns the meter provider lifecycle.
type Telemetry struct {
	meterProvider *sdkmetric.MeterProvider
}

// New initializes the metrics pipeline.
//
// The Prometheus exporter registers with the default Prometheus
// registry, so promhttp.Handler() picks up everything recorded through
// otel.Meter after this call. Disabled config returns a no-op instance.
func New(cfg *Config) (*Telemetry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	t := &Telemetry{}
	if !cfg.Enabled {
		return t, nil
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)

	exporter, err := promexporter.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(mp)
	t.meterProvider = mp

	return t, nil
}

// Shutdown flushes and stops the meter provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.meterProvider == nil {
		return nil
	}
	if err := t.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider shutdown failed: %w", err)
	}
	return nil
}
