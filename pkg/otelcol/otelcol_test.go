package otelcol

import (
	"context"
	"testing"

	"asenso-booking/pkg/config"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx/fxtest"
)

func TestProvideTraceWithoutEndpoint(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := &config.Config{AppName: "asenso-booking"}
	cfg.Otel.SampleRatio = 1

	tp, err := ProvideTrace(lc, cfg)
	require.NoError(t, err)
	lc.RequireStart()
	defer lc.RequireStop()

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	require.True(t, span.SpanContext().IsValid())
	require.Same(t, tp, otel.GetTracerProvider())
}
