package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/retail-oms/internal/messaging/kafka"
)

// initKafkaProducer создаёт producer, если заданы брокеры.
// Без брокеров возвращает nil, nil: сервис работает, события ждут в outbox.
func initKafkaProducer(brokers []string, logger *log.Entry) (*kafka.Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokers, logger.WithField("layer", "kafka"))
	if err != nil {
		return nil, err
	}

	logger.WithField("brokers", brokers).Info("kafka producer initialized")
	return producer, nil
}

// closeKafka закрывает Kafka producer если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
