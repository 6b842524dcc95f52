package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tbourn/go-bot-backend/internal/config"
)

func preserveOTelGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func enabled(name string, insecure bool) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    insecure,
		Endpoint:    "localhost:4317",
		ServiceName: name,
		SampleRatio: 1.0,
	}
}

func TestSetupOTel_Disabled_NoOp(t *testing.T) {
	preserveOTelGlobals(t)
	prev := otel.GetTracerProvider()

	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: false}, "v0.0.0")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown returned error: %v", err)
	}
	if otel.GetTracerProvider() != prev {
		t.Fatalf("disabled setup must not replace the tracer provider")
	}
}

func TestSetupOTel_InstallsProviderAndPropagator(t *testing.T) {
	for _, insecure := range []bool{true, false} {
		preserveOTelGlobals(t)

		shutdown, err := SetupOTel(context.Background(), enabled("botd-test", insecure), "v1.2.3")
		if err != nil {
			t.Fatalf("insecure=%v: unexpected err: %v", insecure, err)
		}
		if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
			t.Fatalf("insecure=%v: expected *sdktrace.TracerProvider", insecure)
		}

		ctx, span := otel.Tracer("test").Start(context.Background(), "webhook")
		carrier := propagation.MapCarrier{}
		otel.GetTextMapPropagator().Inject(ctx, carrier)
		span.End()
		if carrier.Get("traceparent") == "" {
			t.Fatalf("insecure=%v: traceparent not injected", insecure)
		}

		ct, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
		_ = shutdown(ct)
		cancel()
	}
}

func TestSetupOTel_ExporterError_GlobalsIntact(t *testing.T) {
	preserveOTelGlobals(t)
	orig := newExporter
	t.Cleanup(func() { newExporter = orig })
	newExporter = func(context.Context, ...otlptracegrpc.Option) (*otlptrace.Exporter, error) {
		return nil, errors.New("boom-exporter")
	}

	prevTP := otel.GetTracerProvider()
	if _, err := SetupOTel(context.Background(), enabled("svc", true), "v0"); err == nil {
		t.Fatalf("expected error, got nil")
	}
	if otel.GetTracerProvider() != prevTP {
		t.Fatalf("tracer provider changed on failure")
	}
}

func TestSetupOTel_ResourceError_GlobalsIntact(t *testing.T) {
	preserveOTelGlobals(t)
	orig := newResource
	t.Cleanup(func() { newResource = orig })
	newResource = func(context.Context, string, string) (*resource.Resource, error) {
		return nil, errors.New("boom-resource")
	}

	prevTP := otel.GetTracerProvider()
	if _, err := SetupOTel(context.Background(), enabled("svc", true), "v0"); err == nil {
		t.Fatalf("expected error, got nil")
	}
	if otel.GetTracerProvider() != prevTP {
		t.Fatalf("tracer provider changed on failure")
	}
}

func Test_exporterOptions(t *testing.T) {
	if n := len(exporterOptions(enabled("svc", true))); n != 2 {
		t.Fatalf("insecure options = %d; want 2", n)
	}
	if n := len(exporterOptions(enabled("svc", false))); n != 2 {
		t.Fatalf("tls options = %d; want 2", n)
	}
}
