package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/EasyLegalGroup/docshare-v1.3"

var (
	metricsOnce sync.Once

	repositoryOps metric.Int64Counter
	authEvents    metric.Int64Counter
	documentOps   metric.Int64Counter
)

func initMetrics() {
	meter := otel.Meter(meterName)
	repositoryOps, _ = meter.Int64Counter("docshare_repository_operations_total",
		metric.WithDescription("Record-store operations by entity, operation and outcome"))
	authEvents, _ = meter.Int64Counter("docshare_auth_events_total",
		metric.WithDescription("Authentication flow events by flow and outcome"))
	documentOps, _ = meter.Int64Counter("docshare_document_operations_total",
		metric.WithDescription("Document actions by action and outcome"))
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	metricsOnce.Do(initMetrics)
	if repositoryOps == nil {
		return
	}
	repositoryOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordAuthEvent(ctx context.Context, flow, outcome string) {
	metricsOnce.Do(initMetrics)
	if authEvents == nil {
		return
	}
	authEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flow", flow),
		attribute.String("outcome", outcome),
	))
}

func RecordDocumentEvent(ctx context.Context, action, outcome string) {
	metricsOnce.Do(initMetrics)
	if documentOps == nil {
		return
	}
	documentOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}
