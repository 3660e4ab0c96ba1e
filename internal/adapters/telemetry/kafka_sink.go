package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/ports"
)

// KafkaMetricsSink pushes counter flushes onto the platform metrics
// topic, one message per sample, keyed by service id so one service's
// series stays on one partition.
type KafkaMetricsSink struct {
	writer    *kafka.Writer
	topic     string
	serviceID string
}

func NewKafkaMetricsSink(brokers []string, topic, serviceID string) (*KafkaMetricsSink, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka metrics sink requires at least one broker")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka metrics sink requires a topic")
	}
	return &KafkaMetricsSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireOne,
			Balancer:     &kafka.Hash{},
		},
		topic:     topic,
		serviceID: serviceID,
	}, nil
}

func (s *KafkaMetricsSink) Emit(ctx context.Context, samples []ports.MetricSample) error {
	if len(samples) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(samples))
	for _, sample := range samples {
		raw, err := json.Marshal(sample)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(s.serviceID),
			Value: raw,
			Time:  time.Now().UTC(),
		})
	}
	return s.writer.WriteMessages(ctx, msgs...)
}

func (s *KafkaMetricsSink) Close() error {
	return s.writer.Close()
}
