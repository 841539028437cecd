package main

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"idverse/internal/credential/tracer"
	"idverse/internal/platform/config"
)

// setupTracing installs an OTLP/HTTP exporter when OTEL_ENABLED is set. The
// exporter reads its endpoint from the standard OTEL_EXPORTER_OTLP_* variables.
func setupTracing(ctx context.Context, cfg config.Server, log *slog.Logger) (func(context.Context) error, tracer.Tracer, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.OTELEnabled {
		return noop, tracer.NewNoop(), nil
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return noop, nil, fmt.Errorf("create otlp exporter: %w", err)
	}
	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	log.Info("tracing enabled")
	return provider.Shutdown, tracer.NewOTel(), nil
}
