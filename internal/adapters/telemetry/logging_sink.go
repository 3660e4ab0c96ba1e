package telemetry

import (
	"context"
	"log/slog"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/ports"
)

// LoggingMetricsSink stands in for the time-series sink when no brokers
// are configured.
type LoggingMetricsSink struct {
	logger *slog.Logger
}

func NewLoggingMetricsSink(logger *slog.Logger) *LoggingMetricsSink {
	return &LoggingMetricsSink{logger: logger}
}

func (s *LoggingMetricsSink) Emit(ctx context.Context, samples []ports.MetricSample) error {
	for _, sample := range samples {
		if sample.Value == 0 {
			continue
		}
		s.logger.InfoContext(ctx, "metric sample",
			"name", sample.Name,
			"value", sample.Value,
			"unit", sample.Unit,
		)
	}
	return nil
}
