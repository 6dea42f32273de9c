package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
)

func newTestProducer(t *testing.T) (*Producer, *mocks.SyncProducer) {
	t.Helper()

	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newProducer(mockProducer, log.WithField("component", "kafka-producer-test"))
	producer.now = func() time.Time { return time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC) }
	return producer, mockProducer
}

func TestProducer_PublishEvent(t *testing.T) {
	producer, mockProducer := newTestProducer(t)

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicOrderEvents {
			return fmt.Errorf("unexpected topic %q", msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "order:42" {
			return fmt.Errorf("unexpected key %q", key)
		}
		if len(msg.Headers) != 2 || string(msg.Headers[0].Key) != "a" || string(msg.Headers[1].Key) != "b" {
			return fmt.Errorf("headers must be sorted: %+v", msg.Headers)
		}
		return nil
	})

	event := map[string]any{"order_id": 42}
	err := producer.PublishEvent(context.Background(), TopicOrderEvents, "order:42", event, map[string]string{"b": "2", "a": "1"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	producer, mockProducer := newTestProducer(t)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := producer.PublishEvent(context.Background(), TopicOrderEvents, "order:1", map[string]int{"a": 1}, nil)
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected ErrOutOfBrokers, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_CanceledContext(t *testing.T) {
	producer, mockProducer := newTestProducer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := producer.PublishEvent(ctx, TopicOrderEvents, "k", map[string]int{}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// Ожиданий не задано: отправки быть не должно.
	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducerConfig(t *testing.T) {
	config := ProducerConfig()

	if !config.Producer.Idempotent || config.Net.MaxOpenRequests != 1 {
		t.Fatal("producer must be idempotent with a single in-flight request")
	}
	if config.Producer.RequiredAcks != sarama.WaitForAll {
		t.Fatalf("unexpected acks: %v", config.Producer.RequiredAcks)
	}
	if err := config.Validate(); err != nil {
		t.Fatalf("config must be valid: %v", err)
	}
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	if _, err := NewProducer(nil, nil); err == nil {
		t.Fatal("expected error without brokers")
	}
}

func TestNewOutboxEnvelope_ReplacesInvalidPayload(t *testing.T) {
	envelope := NewOutboxEnvelope(outboxMessage("id-1", []byte("not json")), time.Now())

	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if decoded["payload"] != nil {
		t.Fatalf("expected null payload, got %v", decoded["payload"])
	}
}
