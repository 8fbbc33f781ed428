package decorator

import (
	"context"
	"fmt"
	"time"

	"github.com/architeacher/specifications/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
)

type (
	queryMetricsDecorator[Q Query, R Result] struct {
		base   QueryHandler[Q, R]
		client metrics.Client
	}

	commandMetricsDecorator[C Command, R any] struct {
		base   CommandHandler[C, R]
		client metrics.Client
	}
)

func (d queryMetricsDecorator[Q, R]) Execute(ctx context.Context, query Q) (R, error) {
	start := time.Now()
	result, err := d.base.Execute(ctx, query)

	record(ctx, d.client, "queries", generateActionName(query), start, err)

	return result, err
}

func (d commandMetricsDecorator[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	start := time.Now()
	result, err := d.base.Handle(ctx, cmd)

	record(ctx, d.client, "commands", generateActionName(cmd), start, err)

	return result, err
}

func record(ctx context.Context, client metrics.Client, kind, action string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}

	attrs := []attribute.KeyValue{
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	}

	client.Inc(ctx, fmt.Sprintf("%s.executed", kind), 1, attrs...)
	client.Record(ctx, fmt.Sprintf("%s.duration", kind), float64(time.Since(start).Microseconds())/1000, attrs...)
}
