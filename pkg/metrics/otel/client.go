// Package otel implements metrics.Client on an OpenTelemetry meter.
package otel

import (
	"context"
	"sync"

	"github.com/architeacher/specifications/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/architeacher/specifications"

type (
	// Shutdowner is the part of an SDK meter provider the client owns.
	Shutdowner interface {
		Shutdown(ctx context.Context) error
	}

	// MetricsClient registers instruments lazily, one per key.
	MetricsClient struct {
		meter      metric.Meter
		shutdowner Shutdowner

		mu         sync.Mutex
		counters   map[string]metric.Int64Counter
		histograms map[string]metric.Float64Histogram
		onError    func(key string, err error)
	}
)

// NewMetricsClient records through provider. When provider also implements
// Shutdowner, Shutdown flushes it.
func NewMetricsClient(provider metric.MeterProvider, onError func(key string, err error)) *MetricsClient {
	shutdowner, _ := provider.(Shutdowner)

	if onError == nil {
		onError = func(string, error) {}
	}

	return &MetricsClient{
		meter:      provider.Meter(meterName),
		shutdowner: shutdowner,
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
		onError:    onError,
	}
}

// Inc adds value to the counter named key. Integer values of any width are
// accepted; anything else counts as one.
func (c *MetricsClient) Inc(ctx context.Context, key string, value any, attributes ...attribute.KeyValue) {
	counter, err := c.counter(key)
	if err != nil {
		c.onError(key, err)

		return
	}

	counter.Add(ctx, toInt64(value), metric.WithAttributes(attributes...))
}

func (c *MetricsClient) Record(ctx context.Context, key string, value float64, attributes ...attribute.KeyValue) {
	histogram, err := c.histogram(key)
	if err != nil {
		c.onError(key, err)

		return
	}

	histogram.Record(ctx, value, metric.WithAttributes(attributes...))
}

func (c *MetricsClient) Shutdown(ctx context.Context) error {
	if c.shutdowner == nil {
		return nil
	}

	return c.shutdowner.Shutdown(ctx)
}

func (c *MetricsClient) counter(key string) (metric.Int64Counter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if counter, ok := c.counters[key]; ok {
		return counter, nil
	}

	counter, err := metrics.RegisterInt64Counter(c.meter, metrics.Descriptor{Unit: "1"}, key)
	if err != nil {
		return nil, err
	}

	c.counters[key] = counter

	return counter, nil
}

func (c *MetricsClient) histogram(key string) (metric.Float64Histogram, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if histogram, ok := c.histograms[key]; ok {
		return histogram, nil
	}

	histogram, err := metrics.RegisterFloat64Histogram(c.meter, metrics.Descriptor{Unit: "ms"}, key)
	if err != nil {
		return nil, err
	}

	c.histograms[key] = histogram

	return histogram, nil
}

func toInt64(value any) int64 {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	}

	return 1
}
