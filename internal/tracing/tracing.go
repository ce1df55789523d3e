// Package tracing wires OpenTelemetry tracing for the FleetLens CLI.
package tracing

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName is reported on every span.
const ServiceName = "fleetlens"

// Version is set at build time via -ldflags.
var Version = "dev"

// tracesPath is appended to a base OTLP endpoint.
const tracesPath = "/v1/traces"

// EndpointFromEnv returns the OTLP traces URL. The trace-specific variable
// is used as given; the base variable gets the /v1/traces signal path.
func EndpointFromEnv() string {
	if v := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); v != "" {
		return v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		return strings.TrimSuffix(v, "/") + tracesPath
	}
	return ""
}

// InitTracing installs a global tracer provider exporting over OTLP/HTTP to
// the traces URL endpoint, as returned by EndpointFromEnv. A URL without a
// path posts to /v1/traces. An empty endpoint leaves the no-op provider in
// place. The returned function flushes and shuts the provider down.
func InitTracing(ctx context.Context, endpoint string) (func(), error) {
	if endpoint == "" {
		return func() {}, nil
	}

	host, path, insecure, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid OTLP endpoint %q: %w", endpoint, err)
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(host)}
	if path != "" {
		opts = append(opts, otlptracehttp.WithURLPath(path))
	}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		log.Printf("⚠️  FleetLens: failed to create OTLP exporter, tracing disabled: %v", err)
		return func() {}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(Version),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}, nil
}

// parseEndpoint splits an endpoint into host, URL path and whether the
// connection is plain HTTP. A bare host:port[/path] is treated as plain HTTP.
func parseEndpoint(endpoint string) (host, path string, insecure bool, err error) {
	if !strings.Contains(endpoint, "://") {
		host, path, _ = strings.Cut(endpoint, "/")
		if path != "" {
			path = "/" + strings.TrimSuffix(path, "/")
		}
		return host, path, true, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", "", false, err
	}
	if u.Host == "" {
		return "", "", false, fmt.Errorf("missing host")
	}
	return u.Host, strings.TrimSuffix(u.Path, "/"), u.Scheme == "http", nil
}

// Tracer returns the named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// RecordError marks span as failed.
func RecordError(span trace.Span, err error, errorType string) {
	span.RecordError(err, trace.WithAttributes(attribute.String("error.type", errorType)))
	span.SetStatus(codes.Error, err.Error())
}
