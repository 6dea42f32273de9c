package app

import (
	"time"

	"github.com/vladislavdragonenkov/retail-oms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/idempotency"
)

// Поддерживаемые хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска приложения.
type Config struct {
	GRPCAddr    string
	HTTPAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool
	// SeedCatalog наполняет каталог демонстрационными товарами.
	SeedCatalog bool

	// KafkaBrokers пустой — события копятся в outbox, worker не запускается.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaDLQ     string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
	// OutboxMaxPending — порог backlog, выше которого /healthz отдаёт degraded.
	OutboxMaxPending int

	IdempotencyTTL              time.Duration
	IdempotencyCleanupInterval  time.Duration
	IdempotencyCleanupBatchSize int
}

// DefaultConfig возвращает настройки для локального запуска.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:                    ":50051",
		HTTPAddr:                    ":8080",
		MetricsAddr:                 ":9090",
		StorageDriver:               StorageDriverMemory,
		PostgresAutoMigrate:         true,
		SeedCatalog:                 true,
		KafkaTopic:                  kafka.TopicOrderEvents,
		KafkaDLQ:                    kafka.TopicDeadLetterQueue,
		OutboxPollInterval:          time.Second,
		OutboxBatchSize:             100,
		OutboxMaxAttempts:           3,
		OutboxRetryDelay:            200 * time.Millisecond,
		OutboxMaxPending:            1000,
		IdempotencyTTL:              idempotency.DefaultTTL,
		IdempotencyCleanupInterval:  10 * time.Minute,
		IdempotencyCleanupBatchSize: 500,
	}
}
