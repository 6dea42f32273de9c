package app

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/retail-oms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/retail-oms/internal/metrics"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/idempotency"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/outbox"
)

// startWorkers запускает фоновые задачи: публикацию outbox (только при
// наличии producer) и очистку просроченных ключей идемпотентности.
// Возвращённая функция останавливает их и ждёт завершения.
func startWorkers(
	ctx context.Context,
	cfg Config,
	deps runtimeDependencies,
	producer *kafka.Producer,
	registerer prometheus.Registerer,
	logger *log.Entry,
) func() {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup

	if producer != nil {
		worker := outbox.NewWorker(
			deps.outboxRepo,
			kafka.NewOutboxPublisher(producer, cfg.KafkaTopic),
			outbox.WithLogger(logger.WithField("worker", "outbox")),
			outbox.WithMetrics(metrics.NewOutboxMetrics(registerer)),
			outbox.WithDLQPublisher(kafka.NewOutboxPublisher(producer, cfg.KafkaDLQ)),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx)
		}()
	} else {
		logger.Warn("kafka is not configured, outbox events stay pending")
	}

	cleanup := idempotency.NewCleanupWorker(
		deps.idempotencyRepo,
		idempotency.WithLogger(logger.WithField("worker", "idempotency-cleanup")),
		idempotency.WithMetrics(metrics.NewCleanupMetrics(registerer)),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		cleanup.Run(ctx)
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}
