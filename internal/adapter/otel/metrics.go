package otel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// InitMeter initializes an OTLP gRPC metric exporter and MeterProvider.
// An empty endpoint disables export and returns a no-op shutdown; the
// global meter stays a no-op, so recording helpers are always safe.
func InitMeter(ctx context.Context, serviceName, endpoint string) (ShutdownFunc, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("otlp metric exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		))
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	slog.Info("metric export enabled", "endpoint", endpoint)

	return mp.Shutdown, nil
}

var (
	instrumentsOnce sync.Once
	mutationCounter metric.Int64Counter
	cacheCounter    metric.Int64Counter
)

func instruments() (metric.Int64Counter, metric.Int64Counter) {
	instrumentsOnce.Do(func() {
		meter := otel.Meter(tracerName)
		mutationCounter, _ = meter.Int64Counter("crowndesk.ticket.mutations",
			metric.WithDescription("Ticket mutations by field and outcome"))
		cacheCounter, _ = meter.Int64Counter("crowndesk.ticket_list.cache",
			metric.WithDescription("Ticket list cache lookups by result"))
	})
	return mutationCounter, cacheCounter
}

// RecordMutation counts one ticket mutation outcome ("confirmed" or
// "rolledback") for the given field.
func RecordMutation(ctx context.Context, field, outcome string) {
	mutations, _ := instruments()
	mutations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("field", field),
			attribute.String("outcome", outcome),
		))
}

// RecordCacheLookup counts one ticket-list cache lookup.
func RecordCacheLookup(ctx context.Context, hit bool) {
	_, cache := instruments()
	result := "miss"
	if hit {
		result = "hit"
	}
	cache.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
