// Package observability provides OpenTelemetry integration for distributed
// tracing.
//
// Traces are exported over OTLP HTTP to whatever collector the deployment
// runs (an OTel Collector, a vendor agent listening on localhost:4318, or
// nothing at all). When no endpoint is configured, Setup installs nothing
// and the indexer's and retriever's spans stay no-ops.
package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/tessera-ai/tessera/internal/config"
)

// Setup installs a global TracerProvider exporting to the configured OTLP
// endpoint. Returns a shutdown function that flushes pending spans; the
// function is always non-nil and safe to call.
//
// Exporter creation failures disable tracing with a warning rather than
// failing startup: the pipeline must run without a collector.
func Setup(ctx context.Context, cfg config.ObservabilityConfig, logger *slog.Logger) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if logger == nil {
		logger = slog.Default()
	}

	if !cfg.Enabled() {
		logger.Debug("tracing disabled: no OTLP endpoint configured")
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(), // collectors are reached over localhost or the pod network
	)
	if err != nil {
		logger.Warn("failed to create OTLP exporter, tracing disabled", "error", err)
		return noop, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		attribute.String("deployment.environment", cfg.Environment),
	))
	if err != nil {
		logger.Warn("failed to build trace resource, tracing disabled", "error", err)
		return noop, nil
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	logger.Debug("tracing enabled",
		"endpoint", cfg.OTLPEndpoint,
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
	)

	return provider.Shutdown, nil
}
