package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MetricsConfig holds metrics export settings
type MetricsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ExportInterval    time.Duration
	ServiceName       string
	Insecure          bool
}

// MeterProvider wraps the SDK meter provider with lifecycle management
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
}

// NewMeterProvider configures OTLP/gRPC metric export. When disabled Meter
// falls back to the global (no-op) provider.
func NewMeterProvider(ctx context.Context, cfg MetricsConfig, logger *zap.Logger) (*MeterProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mp := &MeterProvider{logger: logger}
	if !cfg.Enabled {
		logger.Info("Metrics disabled, using no-op meter provider")
		return mp, nil
	}

	interval := cfg.ExportInterval
	if interval == 0 {
		interval = 60 * time.Second
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}
	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", interval),
	)
	return mp, nil
}

// Meter returns a named meter
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp == nil || mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// IsEnabled reports whether metrics are exported
func (mp *MeterProvider) IsEnabled() bool {
	return mp.provider != nil
}

// Shutdown flushes and stops the provider
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		mp.logger.Error("Error shutting down meter provider", zap.Error(err))
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// Counter wraps an Int64Counter
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a counter instrument
func NewCounter(meter metric.Meter, name, description, unit string) (*Counter, error) {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return &Counter{counter: c}, nil
}

// Add increments the counter by n
func (c *Counter) Add(ctx context.Context, n int64, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, n, metric.WithAttributes(attrs...))
}

// Inc increments the counter by one
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.Add(ctx, 1, attrs...)
}

// Metric attribute keys
var (
	AttrOutcome    = attribute.Key("outcome")
	AttrCapability = attribute.Key("capability")
	AttrReversal   = attribute.Key("reversal")
)

// ConsoleMetrics holds the access and billing instruments
type ConsoleMetrics struct {
	decisions *Counter
	payments  *Counter
	groups    *Counter
}

// NewConsoleMetrics registers access_decisions_total, payments_recorded_total
// and bill_groups_aggregated on meter.
func NewConsoleMetrics(meter metric.Meter) (*ConsoleMetrics, error) {
	decisions, err := NewCounter(meter, "access_decisions_total", "Access guard decisions", "{decision}")
	if err != nil {
		return nil, err
	}
	payments, err := NewCounter(meter, "payments_recorded_total", "Payment ledger entries appended", "{payment}")
	if err != nil {
		return nil, err
	}
	groups, err := NewCounter(meter, "bill_groups_aggregated", "Bill groups produced by report aggregation", "{group}")
	if err != nil {
		return nil, err
	}
	return &ConsoleMetrics{decisions: decisions, payments: payments, groups: groups}, nil
}

// RecordDecision counts one guard decision
func (m *ConsoleMetrics) RecordDecision(ctx context.Context, outcome, capability string) {
	if m == nil {
		return
	}
	m.decisions.Inc(ctx, AttrOutcome.String(outcome), AttrCapability.String(capability))
}

// RecordPayment counts one appended ledger entry
func (m *ConsoleMetrics) RecordPayment(ctx context.Context, reversal bool) {
	if m == nil {
		return
	}
	m.payments.Inc(ctx, AttrReversal.Bool(reversal))
}

// RecordBillGroups counts the groups produced by one aggregation
func (m *ConsoleMetrics) RecordBillGroups(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.groups.Add(ctx, int64(n))
}
