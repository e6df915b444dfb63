package repository

import (
	"context"

	"BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
	pkgkafka "BrentCast/pkg/kafka"
)

type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaForecastPublisher implements ForecastPublisher for Kafka. Messages are
// keyed by model name so each model's forecasts stay ordered.
type KafkaForecastPublisher struct {
	producer producer
	topic    string
}

// NewKafkaForecastPublisher creates Kafka publisher.
func NewKafkaForecastPublisher(p *pkgkafka.Producer, topic string) *KafkaForecastPublisher {
	return &KafkaForecastPublisher{producer: p, topic: topic}
}

func (p *KafkaForecastPublisher) Publish(ctx context.Context, r *models.ForecastResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Model), r)
}

// PublishAll sends several results in one batch.
func (p *KafkaForecastPublisher) PublishAll(ctx context.Context, results []*models.ForecastResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(results))
	for i, r := range results {
		msgs[i] = pkgkafka.Message{Key: []byte(r.Model), Value: r}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaForecastPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var _ domrepo.ForecastPublisher = (*KafkaForecastPublisher)(nil)
