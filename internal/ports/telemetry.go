package ports

import (
	"context"
	"time"
)

// MetricSample is one named counter reading pushed to the external
// time-series sink. Values are per-interval rates, not cumulative totals:
// the collector resets after every emission.
type MetricSample struct {
	Name      string    `json:"name"`
	Value     int64     `json:"value"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
}

// MetricsSink receives periodic counter flushes.
type MetricsSink interface {
	Emit(ctx context.Context, samples []MetricSample) error
}
