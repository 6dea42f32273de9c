package domain

import (
	"fmt"
	"strings"
)

// LineItemStatus описывает состояние исполнения отдельной позиции заказа.
type LineItemStatus string

const (
	// LineItemStatusPending — позиция создана вместе с заказом.
	LineItemStatusPending LineItemStatus = "PENDING"
	// LineItemStatusConfirmed — позиция подтверждена к исполнению.
	LineItemStatusConfirmed LineItemStatus = "CONFIRMED"
	// LineItemStatusShipped — позиция передана в доставку.
	LineItemStatusShipped LineItemStatus = "SHIPPED"
	// LineItemStatusDelivered — позиция получена покупателем.
	LineItemStatusDelivered LineItemStatus = "DELIVERED"
	// LineItemStatusCancelled — позиция отменена.
	LineItemStatusCancelled LineItemStatus = "CANCELLED"
	// LineItemStatusReturned — позиция возвращена покупателем.
	LineItemStatusReturned LineItemStatus = "RETURNED"
)

var lineItemStatuses = []LineItemStatus{
	LineItemStatusPending,
	LineItemStatusConfirmed,
	LineItemStatusShipped,
	LineItemStatusDelivered,
	LineItemStatusCancelled,
	LineItemStatusReturned,
}

// LineItemStatuses возвращает все допустимые статусы в порядке объявления.
func LineItemStatuses() []LineItemStatus {
	result := make([]LineItemStatus, len(lineItemStatuses))
	copy(result, lineItemStatuses)
	return result
}

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s LineItemStatus) Valid() bool {
	for _, known := range lineItemStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s LineItemStatus) String() string {
	return string(s)
}

// ParseLineItemStatus сопоставляет имя статуса без учёта регистра.
// Пробелы по краям игнорируются.
func ParseLineItemStatus(name string) (LineItemStatus, error) {
	candidate := LineItemStatus(strings.ToUpper(strings.TrimSpace(name)))
	if !candidate.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, name)
	}
	return candidate, nil
}
