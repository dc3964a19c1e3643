package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/kirielllka/empl-reports/internal/config"
)

const (
	ServiceName    = "payout-report"
	ServiceVersion = "1.0.0"
	MeterName      = "github.com/kirielllka/empl-reports"
)

// OTelProviders holds the OpenTelemetry providers for one run.
// Tracer and Meter are always usable; they are no-ops when the matching
// feature is disabled.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prometheus.Registry

	textfilePath string
	traceOutput  io.Closer
	logger       *slog.Logger
}

// InitializeOTel sets up tracing and metrics according to cfg.
func InitializeOTel(cfg *config.Config, logger *slog.Logger) (*OTelProviders, error) {
	if logger == nil {
		logger = GetLogger()
	}

	providers := &OTelProviders{
		Tracer: tracenoop.NewTracerProvider().Tracer(MeterName),
		Meter:  metricnoop.NewMeterProvider().Meter(MeterName),
		logger: logger,
	}

	if !cfg.Tracing.Enabled && !cfg.Metrics.Enabled {
		return providers, nil
	}

	res := createResource()

	if cfg.Tracing.Enabled {
		if err := providers.initializeTracing(cfg.Tracing, res); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.Metrics.Enabled {
		if err := providers.initializeMetrics(cfg.Metrics, res); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	logger.Info("OpenTelemetry initialized",
		slog.Bool("tracing_enabled", cfg.Tracing.Enabled),
		slog.Bool("metrics_enabled", cfg.Metrics.Enabled))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource() *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
		attribute.String("service.instance.id", uuid.NewString()),
	)
}

func (p *OTelProviders) initializeTracing(cfg config.TracingConfig, res *resource.Resource) error {
	var out io.Writer = os.Stderr
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return fmt.Errorf("failed to create trace directory: %w", err)
		}
		file, err := os.Create(cfg.FilePath)
		if err != nil {
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		p.traceOutput = file
		out = file
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// Synchronous export: a batch run is short and must not lose spans on exit.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	p.TracerProvider = tp
	p.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(ServiceVersion))
	otel.SetTracerProvider(tp)

	return nil
}

func (p *OTelProviders) initializeMetrics(cfg config.MetricsConfig, res *resource.Resource) error {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(
		otelprom.WithRegisterer(registry),
		otelprom.WithoutScopeInfo(),
	)
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	p.MeterProvider = mp
	p.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(ServiceVersion))
	p.Registry = registry
	p.textfilePath = cfg.TextfilePath
	otel.SetMeterProvider(mp)

	return nil
}

// Shutdown writes the metrics textfile, flushes spans and releases outputs.
// All steps run even when one fails; the errors are joined.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.Registry != nil && p.textfilePath != "" {
		if err := os.MkdirAll(filepath.Dir(p.textfilePath), 0755); err != nil {
			errs = append(errs, fmt.Errorf("failed to create metrics directory: %w", err))
		} else if err := prometheus.WriteToTextfile(p.textfilePath, p.Registry); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics textfile: %w", err))
		} else {
			p.logger.Info("Metrics written", slog.String("path", p.textfilePath))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.traceOutput != nil {
		if err := p.traceOutput.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close trace file: %w", err))
		}
	}

	return errors.Join(errs...)
}

// PayoutMetrics counts what a report run did.
type PayoutMetrics struct {
	filesProcessed  metric.Int64Counter
	recordsRendered metric.Int64Counter
	recordsFailed   metric.Int64Counter
	rowsSkipped     metric.Int64Counter
}

// NewPayoutMetrics registers the payout instruments on meter
func NewPayoutMetrics(meter metric.Meter) (*PayoutMetrics, error) {
	filesProcessed, err := meter.Int64Counter(
		"payout_files_processed",
		metric.WithDescription("Input files processed, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	recordsRendered, err := meter.Int64Counter(
		"payout_records_rendered",
		metric.WithDescription("Employee records rendered with a gross pay"),
	)
	if err != nil {
		return nil, err
	}

	recordsFailed, err := meter.Int64Counter(
		"payout_records_failed",
		metric.WithDescription("Employee records whose hours or rate could not be parsed"),
	)
	if err != nil {
		return nil, err
	}

	rowsSkipped, err := meter.Int64Counter(
		"payout_rows_skipped",
		metric.WithDescription("Data rows dropped for having too few cells"),
	)
	if err != nil {
		return nil, err
	}

	return &PayoutMetrics{
		filesProcessed:  filesProcessed,
		recordsRendered: recordsRendered,
		recordsFailed:   recordsFailed,
		rowsSkipped:     rowsSkipped,
	}, nil
}

// RecordFile counts one processed file with its outcome status.
func (m *PayoutMetrics) RecordFile(ctx context.Context, status string) {
	m.filesProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordRecords counts rendered and failed records of one report.
func (m *PayoutMetrics) RecordRecords(ctx context.Context, rendered, failed int) {
	m.recordsRendered.Add(ctx, int64(rendered))
	m.recordsFailed.Add(ctx, int64(failed))
}

// RecordSkippedRows counts rows dropped by the mapper.
func (m *PayoutMetrics) RecordSkippedRows(ctx context.Context, n int) {
	m.rowsSkipped.Add(ctx, int64(n))
}
