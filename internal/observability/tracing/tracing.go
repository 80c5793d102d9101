// Package tracing sets up OTLP trace export for the tracker. Every request
// that reaches the server is already wrapped in an otelhttp span; this
// package only decides where those spans go.
package tracing

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ShutdownFunc flushes buffered spans. Call it during graceful shutdown.
type ShutdownFunc func(context.Context) error

// Init wires a tracer provider for the jobtrack service. Without the
// OTEL_EXPORTER_OTLP_ENDPOINT env var spans stay no-op, which is the normal
// single-user deployment.
func Init(ctx context.Context, logger *slog.Logger, serviceName, environment string) (ShutdownFunc, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		if logger != nil {
			logger.Info("tracing disabled: OTEL_EXPORTER_OTLP_ENDPOINT not set")
		}
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.DeploymentEnvironment(environment),
	))
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.AlwaysSample())),
	)
	otel.SetTracerProvider(tp)

	if logger != nil {
		logger.Info("tracing initialized",
			slog.String("endpoint", endpoint),
			slog.String("service", serviceName),
		)
	}
	return tp.Shutdown, nil
}
