package ordering

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
)

// Сообщения успешных операций.
const (
	MessageOrderPlaced   = "Order was successfully placed"
	MessageStatusUpdated = "Order status updated successfully"
)

// Response — единый конверт ответа всех операций.
// При ошибке заполнены только Status, Error, Message и Timestamp.
type Response struct {
	Status        int              `json:"status"`
	Error         domain.ErrorKind `json:"error,omitempty"`
	Message       string           `json:"message,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
	TotalPages    *int             `json:"totalPage,omitempty"`
	TotalElements *int64           `json:"totalElement,omitempty"`
	Order         *OrderDTO        `json:"order,omitempty"`
	OrderList     []OrderDTO       `json:"orderList,omitempty"`
	LineItem      *LineItemDTO     `json:"orderItem,omitempty"`
	LineItemList  []LineItemDTO    `json:"orderItemList,omitempty"`
}

// Failed сообщает, что ответ описывает ошибку.
func (r Response) Failed() bool {
	return r.Status >= http.StatusBadRequest
}

// TimelineEntryDTO — запись истории статусов в ответе.
type TimelineEntryDTO struct {
	From       string    `json:"from,omitempty"`
	To         string    `json:"to"`
	ActorID    int64     `json:"actorId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// LineItemDTO — позиция заказа в ответе.
type LineItemDTO struct {
	ID        int64              `json:"id"`
	OrderID   int64              `json:"orderId"`
	ActorID   int64              `json:"actorId"`
	ProductID int64              `json:"productId"`
	Quantity  int32              `json:"quantity"`
	Price     decimal.Decimal    `json:"price"`
	Status    string             `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	Timeline  []TimelineEntryDTO `json:"timeline,omitempty"`
}

// OrderDTO — заказ в ответе.
type OrderDTO struct {
	ID         int64           `json:"id"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	CreatedAt  time.Time       `json:"createdAt"`
	Items      []LineItemDTO   `json:"orderItemList"`
}

// StatusFor сопоставляет вид ошибки с HTTP-статусом.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case "":
		return http.StatusOK
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindConflict, domain.KindAborted:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse строит конверт ошибки. Текст внутренних ошибок наружу не отдаётся.
func ErrorResponse(err error, at time.Time) Response {
	kind := domain.KindOf(err)
	if kind == "" {
		kind = domain.KindInternal
	}

	message := "internal error"
	if kind != domain.KindInternal {
		message = errorMessage(err)
	}
	return Response{
		Status:    StatusFor(kind),
		Error:     kind,
		Message:   message,
		Timestamp: at,
	}
}

// errorMessage берёт текст первой ошибки из errors.Join, чтобы не склеивать
// несколько строк в одно сообщение.
func errorMessage(err error) string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		if errs := joined.Unwrap(); len(errs) > 0 {
			return errs[0].Error()
		}
	}
	return err.Error()
}

// OrderPlacedResponse — ответ на оформление заказа.
func OrderPlacedResponse(order domain.Order, at time.Time) Response {
	dto := NewOrderDTO(order)
	return Response{Status: http.StatusOK, Message: MessageOrderPlaced, Timestamp: at, Order: &dto}
}

// StatusUpdatedResponse — ответ на смену статуса позиции.
func StatusUpdatedResponse(item domain.LineItem, at time.Time) Response {
	dto := NewLineItemDTO(item)
	return Response{Status: http.StatusOK, Message: MessageStatusUpdated, Timestamp: at, LineItem: &dto}
}

// LineItemPageResponse — страница позиций с количеством страниц и совпадений.
func LineItemPageResponse(page domain.LineItemPage, at time.Time) Response {
	items := make([]LineItemDTO, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, NewLineItemDTO(item))
	}
	totalPages, totalElements := page.TotalPages, page.TotalElements
	return Response{
		Status:        http.StatusOK,
		Timestamp:     at,
		TotalPages:    &totalPages,
		TotalElements: &totalElements,
		LineItemList:  items,
	}
}

// OrderResponse — один заказ.
func OrderResponse(order domain.Order, at time.Time) Response {
	dto := NewOrderDTO(order)
	return Response{Status: http.StatusOK, Timestamp: at, Order: &dto}
}

// LineItemResponse — одна позиция с историей.
func LineItemResponse(details LineItemDetails, at time.Time) Response {
	dto := NewLineItemDTO(details.Item)
	for _, event := range details.Timeline {
		dto.Timeline = append(dto.Timeline, TimelineEntryDTO{
			From:       event.From.String(),
			To:         event.To.String(),
			ActorID:    event.ActorID,
			OccurredAt: event.Occurred,
		})
	}
	return Response{Status: http.StatusOK, Timestamp: at, LineItem: &dto}
}

// OrderPageResponse — страница заказов.
func OrderPageResponse(page domain.OrderPage, at time.Time) Response {
	orders := make([]OrderDTO, 0, len(page.Items))
	for _, order := range page.Items {
		orders = append(orders, NewOrderDTO(order))
	}
	totalPages, totalElements := page.TotalPages, page.TotalElements
	return Response{
		Status:        http.StatusOK,
		Timestamp:     at,
		TotalPages:    &totalPages,
		TotalElements: &totalElements,
		OrderList:     orders,
	}
}

// NewLineItemDTO конвертирует позицию для ответа.
func NewLineItemDTO(item domain.LineItem) LineItemDTO {
	return LineItemDTO{
		ID:        item.ID,
		OrderID:   item.OrderID,
		ActorID:   item.ActorID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Price:     item.Price,
		Status:    item.Status.String(),
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

// NewOrderDTO конвертирует заказ вместе с позициями.
func NewOrderDTO(order domain.Order) OrderDTO {
	items := make([]LineItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, NewLineItemDTO(item))
	}
	return OrderDTO{
		ID:         order.ID,
		TotalPrice: order.TotalPrice,
		CreatedAt:  order.CreatedAt,
		Items:      items,
	}
}
