package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "crowndesk"

// StartLoginSpan starts a span for a tenant-scoped login attempt.
func StartLoginSpan(ctx context.Context, tenantSlug string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "login",
		trace.WithAttributes(
			attribute.String("tenant.slug", tenantSlug),
		),
	)
}

// StartMutationSpan starts a span for an optimistic ticket mutation.
func StartMutationSpan(ctx context.Context, ticketID, field string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "ticket.mutation",
		trace.WithAttributes(
			attribute.String("ticket.id", ticketID),
			attribute.String("ticket.field", field),
		),
	)
}
