package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
)

func outboxMessage(id string, payload []byte) domain.OutboxMessage {
	return domain.OutboxMessage{
		ID:            id,
		AggregateType: domain.AggregateTypeLineItem,
		AggregateID:   "17",
		EventType:     domain.EventLineItemStatusChanged,
		Payload:       payload,
		CreatedAt:     time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC),
	}
}

func TestOutboxPublisher_Publish(t *testing.T) {
	t.Parallel()

	producer, mockProducer := newTestProducer(t)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, _ := msg.Key.Encode()
		if string(key) != "line_item:17" {
			return fmt.Errorf("unexpected key %q", key)
		}
		value, _ := msg.Value.Encode()
		var envelope OutboxEnvelope
		if err := json.Unmarshal(value, &envelope); err != nil {
			return err
		}
		if envelope.ID != "outbox-1" || envelope.EventType != domain.EventLineItemStatusChanged {
			return fmt.Errorf("unexpected envelope %+v", envelope)
		}
		if string(envelope.Payload) != `{"to":"SHIPPED"}` {
			return fmt.Errorf("unexpected payload %s", envelope.Payload)
		}
		for _, h := range msg.Headers {
			if string(h.Key) == HeaderEventType && string(h.Value) == domain.EventLineItemStatusChanged {
				return nil
			}
		}
		return fmt.Errorf("event type header is missing")
	})

	publisher := NewOutboxPublisher(producer, "")
	if err := publisher.Publish(context.Background(), outboxMessage("outbox-1", []byte(`{"to":"SHIPPED"}`))); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_PublishProducerError(t *testing.T) {
	t.Parallel()

	producer, mockProducer := newTestProducer(t)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewOutboxPublisher(producer, TopicDeadLetterQueue)
	if err := publisher.Publish(context.Background(), outboxMessage("outbox-2", []byte(`{}`))); err == nil {
		t.Fatal("expected publish error")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_NotInitialized(t *testing.T) {
	t.Parallel()

	var publisher *OutboxTopicPublisher
	err := publisher.Publish(context.Background(), outboxMessage("outbox-3", nil))
	if !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("expected ErrOutboxPublish, got %v", err)
	}
}
