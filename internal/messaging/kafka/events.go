package kafka

import (
	"encoding/json"
	"time"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
)

// Топики, в которые сервис публикует события.
const (
	TopicOrderEvents     = "retail-oms.order.events"
	TopicDeadLetterQueue = "retail-oms.dlq"
)

// Заголовки сообщений, по которым потребители маршрутизируют события
// без разбора тела.
const (
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
	HeaderOutboxID      = "x-outbox-id"
)

// OutboxEnvelope — тело сообщения, публикуемого из outbox.
type OutboxEnvelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
	PublishedAt   time.Time       `json:"published_at"`
}

// NewOutboxEnvelope упаковывает outbox-сообщение. Невалидный JSON в Payload
// заменяется на null, чтобы конверт оставался сериализуемым.
func NewOutboxEnvelope(msg domain.OutboxMessage, publishedAt time.Time) OutboxEnvelope {
	payload := json.RawMessage(msg.Payload)
	if !json.Valid(payload) {
		payload = json.RawMessage("null")
	}
	return OutboxEnvelope{
		ID:            msg.ID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		EventType:     msg.EventType,
		Payload:       payload,
		OccurredAt:    msg.CreatedAt,
		PublishedAt:   publishedAt,
	}
}

// Headers возвращает заголовки для сообщения.
func (e OutboxEnvelope) Headers() map[string]string {
	return map[string]string{
		HeaderEventType:     e.EventType,
		HeaderAggregateType: e.AggregateType,
		HeaderOutboxID:      e.ID,
	}
}
