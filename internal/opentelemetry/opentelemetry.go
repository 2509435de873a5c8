package opentelemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/cirruslabs/mediacache"

//nolint:gochecknoglobals // the global meter provider is swapped in by Init, instruments follow it
var DefaultMeter metric.Meter = otel.Meter(instrumentationName)

// Init installs a global meter provider. Metrics are only exported when
// OTEL_EXPORTER_OTLP_ENDPOINT (or its metrics-specific variant) is set.
func Init(ctx context.Context) (*sdkmetric.MeterProvider, func(), error) {
	var opts []sdkmetric.Option

	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" || os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT") != "" {
		exporter, err := otlpmetrichttp.New(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize OTLP metric exporter: %w", err)
		}

		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))
	}

	meterProvider := sdkmetric.NewMeterProvider(opts...)

	otel.SetMeterProvider(meterProvider)

	return meterProvider, func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			zap.S().Warnf("failed to shutdown OpenTelemetry meter provider: %v", err)
		}
	}, nil
}
