package messaging

import (
	"context"

	"github.com/punjabheritage/storefront/internal/catalog/domain"
	"github.com/punjabheritage/storefront/pkg/mq"
)

type kafkaPublisher struct {
	producer *mq.KafkaProducer
}

// NewKafkaPublisher wraps the shared producer as the catalog event publisher.
func NewKafkaPublisher(producer *mq.KafkaProducer) domain.EventPublisher {
	return &kafkaPublisher{producer: producer}
}

func (p *kafkaPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	return p.producer.SendMessage(ctx, topic, key, event)
}
