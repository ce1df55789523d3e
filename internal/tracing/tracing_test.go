package tracing

import (
	"context"
	"testing"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		input    string
		host     string
		path     string
		insecure bool
		wantErr  bool
	}{
		{"localhost:4318", "localhost:4318", "", true, false},
		{"localhost:4318/v1/traces", "localhost:4318", "/v1/traces", true, false},
		{"http://collector:4318", "collector:4318", "", true, false},
		{"https://otlp.example.com/otlp/v1/traces/", "otlp.example.com", "/otlp/v1/traces", false, false},
		{"http://", "", "", false, true},
	}

	for _, tt := range tests {
		host, path, insecure, err := parseEndpoint(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseEndpoint(%q) error = %v", tt.input, err)
			continue
		}
		if tt.wantErr {
			continue
		}
		if host != tt.host || path != tt.path || insecure != tt.insecure {
			t.Errorf("parseEndpoint(%q) = %q, %q, %v", tt.input, host, path, insecure)
		}
	}
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "")
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	shutdown()
}

func TestEndpointFromEnv(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		traces string
		want   string
	}{
		{"unset", "", "", ""},
		{"base gets signal path", "http://base:4318", "", "http://base:4318/v1/traces"},
		{"base with prefix", "https://collector.example.com/otlp/", "", "https://collector.example.com/otlp/v1/traces"},
		{"traces used as given", "http://base:4318", "http://traces:4318/custom", "http://traces:4318/custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", tt.base)
			t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", tt.traces)
			if got := EndpointFromEnv(); got != tt.want {
				t.Errorf("EndpointFromEnv = %q, want %q", got, tt.want)
			}
		})
	}

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://base:4318/")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	_, path, _, err := parseEndpoint(EndpointFromEnv())
	if err != nil || path != "/v1/traces" {
		t.Errorf("base endpoint path = %q, %v", path, err)
	}
}
