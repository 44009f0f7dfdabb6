// Package telemetry wires OpenTelemetry tracing for the CLI, the TUI and the
// development server.
package telemetry

import (
	"context"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ServiceName is reported as service.name unless overridden by the caller.
const ServiceName = "sgu"

type settings struct {
	Enabled  string `env:"SGU_OTEL_ENABLED"`
	Endpoint string `env:"SGU_OTEL_ENDPOINT"`
}

// Enabled reports whether Setup would register an exporter.
func Enabled() bool {
	s, err := readSettings()
	return err == nil && s.active()
}

func readSettings() (settings, error) {
	var s settings
	if err := env.Parse(&s); err != nil {
		return settings{}, fmt.Errorf("parse env: %w", err)
	}
	return s, nil
}

func (s settings) active() bool {
	if strings.EqualFold(strings.TrimSpace(s.Enabled), "false") {
		return false
	}
	return strings.TrimSpace(s.Endpoint) != ""
}

// Setup initialises tracing for serviceName.
//
// Tracing is opt-in: when SGU_OTEL_ENDPOINT is empty or SGU_OTEL_ENABLED is "false",
// Setup returns a no-op shutdown function and registers nothing. The returned
// function flushes pending spans and should be deferred by the caller.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	s, err := readSettings()
	if err != nil {
		return noop, err
	}
	if !s.active() {
		return noop, nil
	}
	if strings.TrimSpace(serviceName) == "" {
		serviceName = ServiceName
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(strings.TrimSpace(s.Endpoint)),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}
