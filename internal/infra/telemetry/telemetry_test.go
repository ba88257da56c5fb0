package telemetry

import (
	"context"
	"testing"

	"coloring-book-generator/internal/config"

	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInit_DisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TelemetryConfig{}, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown failed: %v", err)
	}
}

func TestInit_EnabledRequiresServiceName(t *testing.T) {
	if _, err := Init(context.Background(), config.TelemetryConfig{Enabled: true}, "test"); err == nil {
		t.Fatal("expected error without service name")
	}
}

func TestNewTracerProvider_ExportsSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp, err := NewTracerProvider(exp, "svc", "v0")
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	_, span := tp.Tracer(TracerName).Start(context.Background(), "page.generate")
	span.End()
	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].Name != "page.generate" {
		t.Fatalf("unexpected spans: %+v", spans)
	}
}
