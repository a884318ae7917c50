package repository

import (
	"context"
	"time"

	"ChartSentry/internal/domain/models"
	drepo "ChartSentry/internal/domain/repository"
	"ChartSentry/pkg/kafka"
)

// decisionEvent is the wire shape published for every processed signal.
type decisionEvent struct {
	Ticker       string                     `json:"ticker"`
	Level        string                     `json:"level"`
	Label        string                     `json:"label"`
	SignalPrice  float64                    `json:"signal_price,omitempty"`
	Decision     models.Decision            `json:"decision"`
	Verification *models.VerificationResult `json:"verification,omitempty"`
	EmittedAt    int64                      `json:"emitted_at"`
}

// KafkaEventPublisher fans decisions out onto a Kafka topic, keyed by
// ticker so one instrument's events stay ordered within a partition.
type KafkaEventPublisher struct {
	producer *kafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates a publisher for topic on brokers.
func NewKafkaEventPublisher(brokers []string, topic string) (drepo.EventPublisher, error) {
	producer, err := kafka.NewProducer(
		kafka.WithBrokers(brokers),
		kafka.WithCompression("snappy"),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaEventPublisher{producer: producer, topic: topic}, nil
}

// PublishDecision emits one event for a completed cycle.
func (p *KafkaEventPublisher) PublishDecision(ctx context.Context, sig models.Signal, d models.Decision, v *models.VerificationResult) error {
	evt := decisionEvent{
		Ticker:       sig.Ticker,
		Level:        sig.Level,
		Label:        sig.Label,
		SignalPrice:  sig.Price,
		Decision:     d,
		Verification: v,
		EmittedAt:    time.Now().Unix(),
	}
	return p.producer.Publish(ctx, p.topic, []byte(sig.Ticker), evt)
}

// Close flushes and closes the producer.
func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}
