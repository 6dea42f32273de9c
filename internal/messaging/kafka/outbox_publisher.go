package kafka

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
)

// OutboxTopicPublisher публикует outbox-сообщения в заданный топик.
// Ключ сообщения — идентификатор агрегата, поэтому события одной позиции
// попадают в одну партицию и читаются по порядку.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxTopicPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{producer: producer, topic: topic}
}

// Publish отправляет сообщение в топик.
func (p *OutboxTopicPublisher) Publish(ctx context.Context, event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("%w: kafka publisher is not initialized", domain.ErrOutboxPublish)
	}

	key := event.AggregateType + ":" + event.AggregateID
	if event.AggregateID == "" {
		key = event.ID
	}

	envelope := NewOutboxEnvelope(event, p.producer.now())
	return p.producer.PublishEvent(ctx, p.topic, key, envelope, envelope.Headers())
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
