package domain

import "time"

// TimelineEvent — запись в истории статусов позиции заказа.
type TimelineEvent struct {
	LineItemID int64
	OrderID    int64
	ActorID    int64
	From       LineItemStatus
	To         LineItemStatus
	Occurred   time.Time
}

// NewStatusChange фиксирует переход позиции из одного статуса в другой.
func NewStatusChange(before LineItem, to LineItemStatus, actor Actor, at time.Time) TimelineEvent {
	return TimelineEvent{
		LineItemID: before.ID,
		OrderID:    before.OrderID,
		ActorID:    actor.ID,
		From:       before.Status,
		To:         to,
		Occurred:   at,
	}
}
