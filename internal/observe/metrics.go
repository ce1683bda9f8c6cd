// Package observe records OpenTelemetry metrics for engine operations and
// HTTP requests, and exposes them to Prometheus through the OTel exporter
// bridge. Tests should build [Metrics] from their own
// [metric.MeterProvider] with [NewMetrics].
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/jwebster45206/dungeon-engine"

// Metrics holds the metric instruments. All fields are safe for concurrent use.
type Metrics struct {
	// Operations counts engine operations. Attributes: op, status.
	Operations metric.Int64Counter

	// OperationDuration tracks engine operation latency, persistence included.
	OperationDuration metric.Float64Histogram

	// ToolCalls counts MCP tool invocations. Attributes: tool, status.
	ToolCalls metric.Int64Counter

	// HTTPRequests counts HTTP requests. Attributes: method, route, code.
	HTTPRequests metric.Int64Counter

	// HTTPRequestDuration tracks HTTP latency. Attributes: method, route.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets are in seconds. Turns are a Redis round trip or a local
// SQLite transaction, so most land well under 50ms.
var latencyBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1,
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Operations, err = m.Int64Counter("dungeon.engine.operations",
		metric.WithDescription("Engine operations by operation and outcome."),
	); err != nil {
		return nil, err
	}
	if met.OperationDuration, err = m.Float64Histogram("dungeon.engine.operation.duration",
		metric.WithDescription("Latency of engine operations including persistence."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("dungeon.mcp.tool_calls",
		metric.WithDescription("MCP tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequests, err = m.Int64Counter("dungeon.http.requests",
		metric.WithDescription("HTTP requests by method, route and status code."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("dungeon.http.request.duration",
		metric.WithDescription("HTTP request latency by method and route."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordOperation counts one engine operation. status is "ok", the failure
// reason, or "error".
func (m *Metrics) RecordOperation(ctx context.Context, op, status string, elapsed time.Duration) {
	m.Operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("status", status),
	))
	m.OperationDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("op", op),
	))
}

// RecordToolCall counts one MCP tool invocation.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string, _ time.Duration) {
	m.ToolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	))
}
