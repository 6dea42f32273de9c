package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты публикации сообщения из outbox.
const (
	PublishResultSent       = "sent"
	PublishResultRetryError = "retry_error"
	PublishResultFailed     = "failed"
	PublishResultDLQFailed  = "dlq_failed"
)

// OutboxMetrics — метрики outbox-воркера. Безопасны для nil-получателя.
type OutboxMetrics struct {
	publishAttempts *prometheus.CounterVec
	pendingRecords  prometheus.Gauge
	oldestPending   prometheus.Gauge
}

// NewOutboxMetrics регистрирует метрики outbox в переданном реестре.
func NewOutboxMetrics(registerer prometheus.Registerer) *OutboxMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OutboxMetrics{
		publishAttempts: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retail_oms_outbox_publish_attempts_total",
			Help: "Total number of outbox publish attempts grouped by result.",
		}, []string{"result"})),
		pendingRecords: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "retail_oms_outbox_pending_records",
			Help: "Current number of pending records in transactional outbox.",
		})),
		oldestPending: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "retail_oms_outbox_oldest_pending_age_seconds",
			Help: "Age in seconds of the oldest pending outbox record.",
		})),
	}
}

// RecordPublish учитывает попытку публикации с результатом.
func (m *OutboxMetrics) RecordPublish(result string) {
	if m == nil {
		return
	}
	m.publishAttempts.WithLabelValues(result).Inc()
}

// SetBacklog выставляет размер очереди и возраст самого старого сообщения.
func (m *OutboxMetrics) SetBacklog(pending int, oldestAge time.Duration) {
	if m == nil {
		return
	}
	if oldestAge < 0 {
		oldestAge = 0
	}
	m.pendingRecords.Set(float64(pending))
	m.oldestPending.Set(oldestAge.Seconds())
}

// CleanupMetrics — метрики очистки ключей идемпотентности.
type CleanupMetrics struct {
	runs        *prometheus.CounterVec
	deleted     prometheus.Counter
	lastDeleted prometheus.Gauge
}

// NewCleanupMetrics регистрирует метрики очистки в переданном реестре.
func NewCleanupMetrics(registerer prometheus.Registerer) *CleanupMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CleanupMetrics{
		runs: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retail_oms_idempotency_cleanup_runs_total",
			Help: "Total number of idempotency cleanup runs grouped by result.",
		}, []string{"result"})),
		deleted: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retail_oms_idempotency_cleanup_deleted_total",
			Help: "Total number of deleted expired idempotency records.",
		})),
		lastDeleted: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "retail_oms_idempotency_cleanup_last_deleted",
			Help: "Number of deleted records during the last cleanup run.",
		})),
	}
}

// RecordDeleted учитывает удалённую порцию записей.
func (m *CleanupMetrics) RecordDeleted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.deleted.Add(float64(n))
}

// RecordRun учитывает завершённый цикл очистки.
func (m *CleanupMetrics) RecordRun(err error, deleted int) {
	if m == nil {
		return
	}
	if err != nil {
		m.runs.WithLabelValues("error").Inc()
		return
	}
	m.runs.WithLabelValues("ok").Inc()
	m.lastDeleted.Set(float64(deleted))
}
