package ordering

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
)

// OrderPlacedEvent — тело события order.placed.
type OrderPlacedEvent struct {
	OrderID    int64              `json:"order_id"`
	ActorID    int64              `json:"actor_id"`
	TotalPrice decimal.Decimal    `json:"total_price"`
	LineItems  []PlacedItemRecord `json:"line_items"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// PlacedItemRecord — позиция внутри события order.placed.
type PlacedItemRecord struct {
	LineItemID int64           `json:"line_item_id"`
	ProductID  int64           `json:"product_id"`
	Quantity   int32           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

// LineItemStatusChangedEvent — тело события line_item.status_changed.
type LineItemStatusChangedEvent struct {
	LineItemID int64     `json:"line_item_id"`
	OrderID    int64     `json:"order_id"`
	ActorID    int64     `json:"actor_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
}

// afterOrderPlaced пишет начальные записи истории и событие order.placed.
// Заказ к этому моменту уже сохранён, поэтому ошибки здесь только логируются.
func (s *Service) afterOrderPlaced(ctx context.Context, order domain.Order, actor domain.Actor) {
	event := OrderPlacedEvent{
		OrderID:    order.ID,
		ActorID:    actor.ID,
		TotalPrice: order.TotalPrice,
		LineItems:  make([]PlacedItemRecord, 0, len(order.Items)),
		OccurredAt: order.CreatedAt,
	}

	for _, item := range order.Items {
		s.appendTimeline(ctx, domain.TimelineEvent{
			LineItemID: item.ID,
			OrderID:    order.ID,
			ActorID:    actor.ID,
			To:         item.Status,
			Occurred:   item.CreatedAt,
		})
		event.LineItems = append(event.LineItems, PlacedItemRecord{
			LineItemID: item.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			Price:      item.Price,
		})
	}

	totalFloat, _ := order.TotalPrice.Float64()
	s.metrics.RecordOrderPlaced(len(order.Items), totalFloat)
	s.enqueue(ctx, domain.AggregateTypeOrder, order.ID, domain.EventOrderPlaced, event, order.CreatedAt)
}

func (s *Service) afterStatusChanged(ctx context.Context, change domain.TimelineEvent) {
	s.appendTimeline(ctx, change)
	s.enqueue(ctx, domain.AggregateTypeLineItem, change.LineItemID, domain.EventLineItemStatusChanged, LineItemStatusChangedEvent{
		LineItemID: change.LineItemID,
		OrderID:    change.OrderID,
		ActorID:    change.ActorID,
		From:       change.From.String(),
		To:         change.To.String(),
		OccurredAt: change.Occurred,
	}, change.Occurred)
}

func (s *Service) appendTimeline(ctx context.Context, event domain.TimelineEvent) {
	if s.timeline == nil {
		return
	}
	if err := s.timeline.Append(ctx, event); err != nil {
		s.logger.WithError(err).WithField("line_item_id", event.LineItemID).Warn("failed to append timeline event")
		return
	}
	s.metrics.RecordTimelineEvent()
}

func (s *Service) enqueue(ctx context.Context, aggregateType string, aggregateID int64, eventType string, payload any, at time.Time) {
	if s.outbox == nil {
		return
	}

	fields := log.Fields{
		"event_type":   eventType,
		"aggregate_id": aggregateID,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.WithError(err).WithFields(fields).Error("failed to encode outbox payload")
		return
	}

	_, err = s.outbox.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   strconv.FormatInt(aggregateID, 10),
		EventType:     eventType,
		Payload:       data,
		CreatedAt:     at,
	})
	if err != nil {
		s.logger.WithError(err).WithFields(fields).Warn("failed to enqueue outbox event")
		return
	}
	s.metrics.RecordOutboxEnqueued(eventType)
}
