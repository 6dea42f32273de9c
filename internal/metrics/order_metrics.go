package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты выборки позиций для FilterLineItems.
const (
	FilterResultFound   = "found"
	FilterResultEmpty   = "empty"
	FilterResultInvalid = "invalid"
)

// OrderMetrics содержит метрики операций над заказами.
// Методы безопасны для nil-получателя: сервис может работать без метрик.
type OrderMetrics struct {
	ordersPlaced      prometheus.Counter
	lineItemsCreated  prometheus.Counter
	orderValue        prometheus.Histogram
	statusTransitions *prometheus.CounterVec
	filterQueries     *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	timelineEvents    prometheus.Counter
	outboxEnqueued    *prometheus.CounterVec
}

// NewOrderMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewOrderMetrics() *OrderMetrics {
	return NewOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOrderMetricsWithRegisterer регистрирует метрики в переданном реестре.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersPlaced: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retail_oms_orders_placed_total",
			Help: "Total number of orders placed.",
		})),
		lineItemsCreated: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retail_oms_line_items_created_total",
			Help: "Total number of order line items created.",
		})),
		orderValue: register(registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "retail_oms_order_value",
			Help:    "Distribution of order totals in currency units.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		})),
		statusTransitions: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retail_oms_line_item_status_transitions_total",
			Help: "Line item status assignments grouped by target status.",
		}, []string{"to"})),
		filterQueries: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retail_oms_line_item_filter_queries_total",
			Help: "Line item filter queries grouped by result.",
		}, []string{"result"})),
		operationDuration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "retail_oms_operation_duration_seconds",
			Help:    "Duration of order operations in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation", "outcome"})),
		timelineEvents: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retail_oms_timeline_events_total",
			Help: "Total number of line item timeline events recorded.",
		})),
		outboxEnqueued: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retail_oms_outbox_enqueued_total",
			Help: "Outbox events enqueued grouped by event type.",
		}, []string{"event_type"})),
	}
}

// register регистрирует коллектор; при повторной регистрации возвращает существующий.
func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) C {
	err := registerer.Register(collector)
	if err == nil {
		return collector
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		existing, ok := already.ExistingCollector.(C)
		if !ok {
			panic(fmt.Sprintf("collector already registered with unexpected type %T", already.ExistingCollector))
		}
		return existing
	}
	panic(fmt.Sprintf("register collector: %v", err))
}

// RecordOrderPlaced учитывает созданный заказ, его позиции и сумму.
func (m *OrderMetrics) RecordOrderPlaced(lineItems int, total float64) {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
	m.lineItemsCreated.Add(float64(lineItems))
	m.orderValue.Observe(total)
}

// RecordStatusTransition учитывает присвоение статуса позиции.
func (m *OrderMetrics) RecordStatusTransition(to string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(to).Inc()
}

// RecordFilterQuery учитывает выборку позиций с результатом found/empty/invalid.
func (m *OrderMetrics) RecordFilterQuery(result string) {
	if m == nil {
		return
	}
	m.filterQueries.WithLabelValues(result).Inc()
}

// ObserveOperation записывает длительность операции; outcome — "ok" или вид ошибки.
func (m *OrderMetrics) ObserveOperation(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *OrderMetrics) RecordTimelineEvent() {
	if m == nil {
		return
	}
	m.timelineEvents.Inc()
}

// RecordOutboxEnqueued учитывает событие, записанное в outbox.
func (m *OrderMetrics) RecordOutboxEnqueued(eventType string) {
	if m == nil {
		return
	}
	m.outboxEnqueued.WithLabelValues(eventType).Inc()
}
