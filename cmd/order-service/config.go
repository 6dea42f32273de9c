package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/retail-oms/internal/app"
)

const (
	envGRPCAddr                    = "OMS_GRPC_ADDR"
	envHTTPAddr                    = "OMS_HTTP_ADDR"
	envMetricsAddr                 = "OMS_METRICS_ADDR"
	envStorageDriver               = "OMS_STORAGE_DRIVER"
	envPostgresDSN                 = "OMS_POSTGRES_DSN"
	envPostgresAutoMigrate         = "OMS_POSTGRES_AUTO_MIGRATE"
	envSeedCatalog                 = "OMS_SEED_CATALOG"
	envKafkaBrokers                = "KAFKA_BROKERS"
	envKafkaTopic                  = "OMS_KAFKA_TOPIC"
	envKafkaDLQTopic               = "OMS_KAFKA_DLQ_TOPIC"
	envOutboxPollInterval          = "OMS_OUTBOX_POLL_INTERVAL"
	envOutboxBatchSize             = "OMS_OUTBOX_BATCH_SIZE"
	envOutboxMaxAttempts           = "OMS_OUTBOX_MAX_ATTEMPTS"
	envOutboxRetryDelay            = "OMS_OUTBOX_RETRY_DELAY"
	envOutboxMaxPending            = "OMS_OUTBOX_MAX_PENDING"
	envIdempotencyTTL              = "OMS_IDEMPOTENCY_TTL"
	envIdempotencyCleanupInterval  = "OMS_IDEMPOTENCY_CLEANUP_INTERVAL"
	envIdempotencyCleanupBatchSize = "OMS_IDEMPOTENCY_CLEANUP_BATCH_SIZE"
	envLogLevel                    = "OMS_LOG_LEVEL"
	envLogFormat                   = "OMS_LOG_FORMAT"
)

type envLookup func(key string) (string, bool)

// logConfig — настройки logrus, которые не относятся к app.Config.
type logConfig struct {
	level  string
	format string
}

// readConfigFromEnv собирает app.Config из окружения. Некорректные значения
// не роняют запуск: остаётся значение по умолчанию, а причина попадает в warnings.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	warn := func(key, raw string, err error) {
		warnings = append(warnings, fmt.Sprintf("%s=%q: %v, using default", key, raw, err))
	}

	stringVars := map[string]*string{
		envGRPCAddr:      &cfg.GRPCAddr,
		envHTTPAddr:      &cfg.HTTPAddr,
		envMetricsAddr:   &cfg.MetricsAddr,
		envPostgresDSN:   &cfg.PostgresDSN,
		envKafkaTopic:    &cfg.KafkaTopic,
		envKafkaDLQTopic: &cfg.KafkaDLQ,
	}
	for key, target := range stringVars {
		if raw, ok := lookup(key); ok && strings.TrimSpace(raw) != "" {
			*target = strings.TrimSpace(raw)
		}
	}

	if raw, ok := lookup(envStorageDriver); ok && strings.TrimSpace(raw) != "" {
		cfg.StorageDriver = strings.ToLower(strings.TrimSpace(raw))
	}
	if raw, ok := lookup(envKafkaBrokers); ok {
		cfg.KafkaBrokers = parseList(raw)
	}

	boolVars := map[string]*bool{
		envPostgresAutoMigrate: &cfg.PostgresAutoMigrate,
		envSeedCatalog:         &cfg.SeedCatalog,
	}
	for key, target := range boolVars {
		raw, ok := lookup(key)
		if !ok {
			continue
		}
		value, err := parseBool(raw)
		if err != nil {
			warn(key, raw, err)
			continue
		}
		*target = value
	}

	positive := func(v int) bool { return v > 0 }
	intVars := []struct {
		key    string
		target *int
		valid  func(int) bool
		rule   string
	}{
		{envOutboxBatchSize, &cfg.OutboxBatchSize, positive, "must be > 0"},
		{envOutboxMaxAttempts, &cfg.OutboxMaxAttempts, positive, "must be > 0"},
		{envOutboxMaxPending, &cfg.OutboxMaxPending, func(v int) bool { return v >= 0 }, "must be >= 0"},
		{envIdempotencyCleanupBatchSize, &cfg.IdempotencyCleanupBatchSize, positive, "must be > 0"},
	}
	for _, v := range intVars {
		raw, ok := lookup(v.key)
		if !ok {
			continue
		}
		value, err := parseInt(raw, v.valid, v.rule)
		if err != nil {
			warn(v.key, raw, err)
			continue
		}
		*v.target = value
	}

	positiveDuration := func(v time.Duration) bool { return v > 0 }
	durationVars := []struct {
		key    string
		target *time.Duration
		valid  func(time.Duration) bool
		rule   string
	}{
		{envOutboxPollInterval, &cfg.OutboxPollInterval, positiveDuration, "must be > 0"},
		{envOutboxRetryDelay, &cfg.OutboxRetryDelay, func(v time.Duration) bool { return v >= 0 }, "must be >= 0"},
		{envIdempotencyTTL, &cfg.IdempotencyTTL, positiveDuration, "must be > 0"},
		{envIdempotencyCleanupInterval, &cfg.IdempotencyCleanupInterval, positiveDuration, "must be > 0"},
	}
	for _, v := range durationVars {
		raw, ok := lookup(v.key)
		if !ok {
			continue
		}
		value, err := parseDuration(raw, v.valid, v.rule)
		if err != nil {
			warn(v.key, raw, err)
			continue
		}
		*v.target = value
	}

	return cfg, warnings
}

func readLogConfig(lookup envLookup) logConfig {
	cfg := logConfig{level: "info", format: "text"}
	if raw, ok := lookup(envLogLevel); ok && strings.TrimSpace(raw) != "" {
		cfg.level = strings.ToLower(strings.TrimSpace(raw))
	}
	if raw, ok := lookup(envLogFormat); ok && strings.TrimSpace(raw) != "" {
		cfg.format = strings.ToLower(strings.TrimSpace(raw))
	}
	return cfg
}

func parseList(raw string) []string {
	chunks := strings.Split(raw, ",")
	values := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if value := strings.TrimSpace(chunk); value != "" {
			values = append(values, value)
		}
	}
	if len(values) == 0 {
		return nil
	}
	return values
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value")
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid integer value")
	}
	if !valid(value) {
		return 0, fmt.Errorf("value %s", rule)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration value")
	}
	if !valid(value) {
		return 0, fmt.Errorf("value %s", rule)
	}
	return value, nil
}
