package ordering

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
	"github.com/vladislavdragonenkov/retail-oms/internal/metrics"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/idempotency"
)

const methodPlaceOrder = "retailoms.v1.OrderService/PlaceOrder"

// FilterRequest — параметры выборки позиций в виде, в котором их передаёт клиент.
// Пустые поля означают «критерий не задан».
type FilterRequest struct {
	Status    string     `json:"status,omitempty"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	ItemID    *int64     `json:"itemId,omitempty"`
	Page      int        `json:"page,omitempty"`
	Size      int        `json:"size,omitempty"`
	Sort      string     `json:"sort,omitempty"`
}

// Criteria разбирает запрос в фильтр и параметры страницы.
func (r FilterRequest) Criteria() (domain.LineItemFilter, domain.PageRequest, error) {
	var filter domain.LineItemFilter
	if strings.TrimSpace(r.Status) != "" {
		status, err := domain.ParseLineItemStatus(r.Status)
		if err != nil {
			return domain.LineItemFilter{}, domain.PageRequest{}, err
		}
		filter.Status = &status
	}
	filter.StartDate = r.StartDate
	filter.EndDate = r.EndDate
	filter.ItemID = r.ItemID
	if err := filter.Validate(); err != nil {
		return domain.LineItemFilter{}, domain.PageRequest{}, err
	}

	sort, err := domain.ParseSort(r.Sort)
	if err != nil {
		return domain.LineItemFilter{}, domain.PageRequest{}, err
	}
	page, err := domain.PageRequest{Index: r.Page, Size: r.Size, Sort: sort}.Normalize()
	if err != nil {
		return domain.LineItemFilter{}, domain.PageRequest{}, err
	}
	return filter, page, nil
}

// API оборачивает Service в конверт Response. Транспорты работают только с ним.
type API struct {
	service *Service
	guard   *idempotency.Guard
	logger  *log.Entry
	now     func() time.Time
}

// NewAPI создаёт фасад. guard может быть nil: тогда ключи идемпотентности игнорируются.
func NewAPI(service *Service, guard *idempotency.Guard) *API {
	return &API{
		service: service,
		guard:   guard,
		logger:  service.logger.WithField("layer", "api"),
		now:     service.now,
	}
}

// PlaceOrder оформляет заказ. С непустым idempotencyKey повторный запрос
// того же пользователя возвращает сохранённый ответ первого выполнения.
// Ключ действует в пределах пользователя; без пользователя он не занимается.
func (a *API) PlaceOrder(ctx context.Context, idempotencyKey string, req PlaceOrderRequest) Response {
	if a.guard == nil || strings.TrimSpace(idempotencyKey) == "" {
		return a.placeOrder(ctx, req)
	}

	actor, err := a.service.identity.CurrentActor(ctx)
	if err != nil {
		return a.placeOrder(ctx, req)
	}
	key := idempotency.ScopedKey(actor.ID, idempotencyKey)

	hash, err := idempotency.HashRequest(methodPlaceOrder, scopedPlaceOrder{ActorID: actor.ID, Request: req})
	if err != nil {
		a.logger.WithError(err).Warn("failed to build idempotency request hash")
		return ErrorResponse(err, a.now())
	}

	outcome, replayed, err := a.guard.Execute(ctx, key, hash, func(ctx context.Context) idempotency.Outcome {
		resp := a.placeOrder(ctx, req)
		retryable := resp.Error == domain.KindUnauthenticated || resp.Error == domain.KindInternal
		body, err := json.Marshal(resp)
		if err != nil {
			a.logger.WithError(err).Error("failed to encode response for idempotency cache")
			return idempotency.Outcome{Status: http.StatusInternalServerError, Retryable: true}
		}
		return idempotency.Outcome{Body: body, Status: resp.Status, Retryable: retryable}
	})
	if err != nil {
		return ErrorResponse(err, a.now())
	}

	var resp Response
	if err := json.Unmarshal(outcome.Body, &resp); err != nil {
		a.logger.WithError(err).WithField("idempotency_key", key).Error("failed to decode cached response")
		return ErrorResponse(err, a.now())
	}
	if replayed {
		a.logger.WithField("idempotency_key", key).Debug("replayed idempotent response")
	}
	return resp
}

// scopedPlaceOrder — то, что входит в отпечаток запроса на оформление заказа.
type scopedPlaceOrder struct {
	ActorID int64             `json:"actorId"`
	Request PlaceOrderRequest `json:"request"`
}

func (a *API) placeOrder(ctx context.Context, req PlaceOrderRequest) Response {
	order, err := a.service.PlaceOrder(ctx, req)
	if err != nil {
		return ErrorResponse(err, a.now())
	}
	return OrderPlacedResponse(order, a.now())
}

// UpdateLineItemStatus меняет статус позиции.
func (a *API) UpdateLineItemStatus(ctx context.Context, lineItemID int64, status string) Response {
	item, err := a.service.UpdateLineItemStatus(ctx, lineItemID, status)
	if err != nil {
		return ErrorResponse(err, a.now())
	}
	return StatusUpdatedResponse(item, a.now())
}

// FilterLineItems выполняет выборку позиций.
func (a *API) FilterLineItems(ctx context.Context, req FilterRequest) Response {
	filter, page, err := req.Criteria()
	if err != nil {
		a.service.metrics.RecordFilterQuery(metrics.FilterResultInvalid)
		return ErrorResponse(err, a.now())
	}
	result, err := a.service.FilterLineItems(ctx, filter, page)
	if err != nil {
		return ErrorResponse(err, a.now())
	}
	return LineItemPageResponse(result, a.now())
}

// GetOrder возвращает заказ по id.
func (a *API) GetOrder(ctx context.Context, id int64) Response {
	order, err := a.service.GetOrder(ctx, id)
	if err != nil {
		return ErrorResponse(err, a.now())
	}
	return OrderResponse(order, a.now())
}

// GetLineItem возвращает позицию по id вместе с историей.
func (a *API) GetLineItem(ctx context.Context, id int64) Response {
	details, err := a.service.GetLineItem(ctx, id)
	if err != nil {
		return ErrorResponse(err, a.now())
	}
	return LineItemResponse(details, a.now())
}

// ListOrders возвращает страницу заказов.
func (a *API) ListOrders(ctx context.Context, pageIndex, pageSize int) Response {
	page, err := domain.PageRequest{Index: pageIndex, Size: pageSize}.Normalize()
	if err != nil {
		return ErrorResponse(err, a.now())
	}
	result, err := a.service.ListOrders(ctx, page)
	if err != nil {
		return ErrorResponse(err, a.now())
	}
	return OrderPageResponse(result, a.now())
}
