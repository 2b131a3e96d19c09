package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/ghrenier/tg-chatlog/internal/config"
)

func TestSetupOTel_Disabled(t *testing.T) {
	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("disabled setup: %v", err)
	}
	if shutdown == nil {
		t.Fatal("shutdown must be non-nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}
}

func TestSetupOTel_ExporterError(t *testing.T) {
	orig := newOTLPExporterFn
	t.Cleanup(func() { newOTLPExporterFn = orig })

	boom := errors.New("exporter boom")
	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return nil, boom
	}

	cfg := config.OTELConfig{Enabled: true, Endpoint: "localhost:4317", Insecure: true, SampleRatio: 1}
	if _, err := SetupOTel(context.Background(), cfg, "test"); !errors.Is(err, boom) {
		t.Fatalf("err = %v; want exporter error", err)
	}
}

func TestSetupOTel_ResourceError(t *testing.T) {
	origExp := newOTLPExporterFn
	origRes := newServiceResourceFn
	t.Cleanup(func() {
		newOTLPExporterFn = origExp
		newServiceResourceFn = origRes
	})

	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return &otlptrace.Exporter{}, nil
	}
	boom := errors.New("resource boom")
	newServiceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		return nil, boom
	}

	cfg := config.OTELConfig{Enabled: true, Endpoint: "localhost:4317", Insecure: true, SampleRatio: 1}
	if _, err := SetupOTel(context.Background(), cfg, "test"); !errors.Is(err, boom) {
		t.Fatalf("err = %v; want resource error", err)
	}
}
