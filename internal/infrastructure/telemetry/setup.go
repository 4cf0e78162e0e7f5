package telemetry

import (
	"context"
	"errors"

	"github.com/society/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Providers bundles every telemetry pipeline the server starts
type Providers struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
	Metrics  *ConsoleMetrics
}

// Setup starts tracing, metrics, log export and profiling as configured.
// Instruments are always created; with metrics disabled they record into
// the global no-op provider.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*Providers, error) {
	base := Config{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		SamplingRatio:     cfg.SamplingRatio,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}
	p := &Providers{}
	var err error

	if p.Tracer, err = NewTracerProvider(ctx, base, logger); err != nil {
		return nil, err
	}
	if p.Meter, err = NewMeterProvider(ctx, MetricsConfig{
		Enabled:           cfg.Enabled && cfg.MetricsEnabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ExportInterval:    cfg.MetricsInterval,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}, logger); err != nil {
		return nil, errors.Join(err, p.Shutdown(ctx))
	}
	if p.Logs, err = NewLoggerProvider(ctx, LogsConfig{
		Enabled:           cfg.Enabled && cfg.LogsEnabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}, logger); err != nil {
		return nil, errors.Join(err, p.Shutdown(ctx))
	}
	if p.Profiler, err = NewProfiler(ProfilerConfig{
		Enabled:         cfg.ProfilingEnabled,
		ServerAddress:   cfg.PyroscopeAddress,
		ApplicationName: cfg.ServiceName,
	}, logger); err != nil {
		return nil, errors.Join(err, p.Shutdown(ctx))
	}
	if cfg.SpanProfiles && p.Profiler.IsEnabled() {
		p.Tracer.EnableSpanProfiles()
	}
	if p.Metrics, err = NewConsoleMetrics(p.Meter.Meter(TracerName)); err != nil {
		return nil, errors.Join(err, p.Shutdown(ctx))
	}
	return p, nil
}

// Shutdown stops every started pipeline, logs last
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.Profiler != nil {
		errs = append(errs, p.Profiler.Stop())
	}
	if p.Tracer != nil {
		errs = append(errs, p.Tracer.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = append(errs, p.Meter.Shutdown(ctx))
	}
	if p.Logs != nil {
		errs = append(errs, p.Logs.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
