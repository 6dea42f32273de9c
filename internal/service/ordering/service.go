package ordering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
	"github.com/vladislavdragonenkov/retail-oms/internal/metrics"
)

// ItemRequest — запрошенный товар и его количество.
type ItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

// PlaceOrderRequest — запрос на оформление заказа.
// TotalPrice необязателен: если он задан и больше нуля, используется как итог заказа.
type PlaceOrderRequest struct {
	Items      []ItemRequest    `json:"items"`
	TotalPrice *decimal.Decimal `json:"totalPrice,omitempty"`
}

// LineItemDetails — позиция заказа вместе с историей статусов.
type LineItemDetails struct {
	Item     domain.LineItem
	Timeline []domain.TimelineEvent
}

// Option настраивает Service.
type Option func(*Service)

// WithTimeline включает запись истории статусов.
func WithTimeline(repo domain.TimelineRepository) Option {
	return func(s *Service) { s.timeline = repo }
}

// WithOutbox включает публикацию событий через transactional outbox.
func WithOutbox(repo domain.OutboxRepository) Option {
	return func(s *Service) { s.outbox = repo }
}

// WithMetrics подключает метрики операций.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service реализует операции над заказами и их позициями.
// Состояния между вызовами не хранит: всё живёт в репозиториях.
type Service struct {
	catalog   domain.CatalogLookup
	identity  domain.IdentityResolver
	orders    domain.OrderRepository
	lineItems domain.LineItemRepository
	timeline  domain.TimelineRepository
	outbox    domain.OutboxRepository
	metrics   *metrics.OrderMetrics
	logger    *log.Entry
	now       func() time.Time
}

// NewService создаёт сервис заказов.
func NewService(
	catalog domain.CatalogLookup,
	identity domain.IdentityResolver,
	orders domain.OrderRepository,
	lineItems domain.LineItemRepository,
	options ...Option,
) (*Service, error) {
	switch {
	case catalog == nil:
		return nil, errors.New("catalog lookup is required")
	case identity == nil:
		return nil, errors.New("identity resolver is required")
	case orders == nil:
		return nil, errors.New("order repository is required")
	case lineItems == nil:
		return nil, errors.New("line item repository is required")
	}

	s := &Service{
		catalog:   catalog,
		identity:  identity,
		orders:    orders,
		lineItems: lineItems,
		logger:    log.WithField("component", "ordering"),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

// PlaceOrder оценивает позиции по каталогу и сохраняет заказ целиком.
// Любая ошибка разрешения товара прерывает операцию до записи.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (order domain.Order, err error) {
	defer s.observe("place_order", s.now(), &err)

	actor, err := s.identity.CurrentActor(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	if len(req.Items) == 0 {
		return domain.Order{}, domain.ErrItemsRequired
	}

	now := s.now()
	items := make([]domain.LineItem, 0, len(req.Items))
	for _, requested := range req.Items {
		product, err := s.catalog.GetByID(ctx, requested.ProductID)
		if err != nil {
			return domain.Order{}, fmt.Errorf("product %d: %w", requested.ProductID, err)
		}
		item, err := domain.NewLineItem(product, requested.Quantity, actor, now)
		if err != nil {
			return domain.Order{}, fmt.Errorf("product %d: %w", requested.ProductID, err)
		}
		items = append(items, item)
	}

	order = domain.Order{
		Items:      items,
		TotalPrice: domain.ResolveTotal(req.TotalPrice, items),
		CreatedAt:  now,
	}
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, errors.Join(errs...)
	}

	saved, err := s.orders.Create(ctx, order)
	if err != nil {
		s.logger.WithError(err).WithField("actor_id", actor.ID).Error("failed to persist order")
		return domain.Order{}, fmt.Errorf("save order: %w", err)
	}

	s.afterOrderPlaced(ctx, saved, actor)
	s.logger.WithFields(log.Fields{
		"order_id":   saved.ID,
		"actor_id":   actor.ID,
		"line_items": len(saved.Items),
		"total":      saved.TotalPrice.String(),
	}).Info("order placed")
	return saved, nil
}

// UpdateLineItemStatus переводит позицию в статус с именем statusName (регистр не важен).
// Переход возможен из любого статуса в любой; повтор того же статуса ничего не меняет.
func (s *Service) UpdateLineItemStatus(ctx context.Context, lineItemID int64, statusName string) (item domain.LineItem, err error) {
	defer s.observe("update_status", s.now(), &err)

	before, err := s.lineItems.Get(ctx, lineItemID)
	if err != nil {
		return domain.LineItem{}, err
	}
	status, err := domain.ParseLineItemStatus(statusName)
	if err != nil {
		return domain.LineItem{}, err
	}

	at := s.now()
	updated, err := s.lineItems.UpdateStatus(ctx, lineItemID, status, at)
	if err != nil {
		return domain.LineItem{}, err
	}
	if before.Status == updated.Status {
		return updated, nil
	}

	// Идентификатор пользователя для истории не обязателен: смена статуса
	// не привязана к владельцу позиции.
	actor, actorErr := s.identity.CurrentActor(ctx)
	if actorErr != nil {
		actor = domain.Actor{}
	}
	s.afterStatusChanged(ctx, domain.NewStatusChange(before, updated.Status, actor, at))
	s.metrics.RecordStatusTransition(updated.Status.String())

	s.logger.WithFields(log.Fields{
		"line_item_id": updated.ID,
		"from":         before.Status,
		"to":           updated.Status,
	}).Info("line item status updated")
	return updated, nil
}

// FilterLineItems возвращает страницу позиций, подходящих под фильтр.
// Пустая страница считается ошибкой ErrNoLineItemsMatched.
func (s *Service) FilterLineItems(ctx context.Context, filter domain.LineItemFilter, page domain.PageRequest) (result domain.LineItemPage, err error) {
	defer s.observe("filter_line_items", s.now(), &err)

	result, err = s.lineItems.Find(ctx, filter, page)
	switch {
	case err != nil:
		if domain.KindOf(err) == domain.KindInvalidArgument {
			s.metrics.RecordFilterQuery(metrics.FilterResultInvalid)
		}
		return domain.LineItemPage{}, err
	case len(result.Items) == 0:
		s.metrics.RecordFilterQuery(metrics.FilterResultEmpty)
		return domain.LineItemPage{}, domain.ErrNoLineItemsMatched
	default:
		s.metrics.RecordFilterQuery(metrics.FilterResultFound)
		return result, nil
	}
}

// GetOrder возвращает заказ со всеми позициями.
func (s *Service) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	return s.orders.Get(ctx, id)
}

// GetLineItem возвращает позицию и её историю статусов.
func (s *Service) GetLineItem(ctx context.Context, id int64) (LineItemDetails, error) {
	item, err := s.lineItems.Get(ctx, id)
	if err != nil {
		return LineItemDetails{}, err
	}

	details := LineItemDetails{Item: item}
	if s.timeline == nil {
		return details, nil
	}
	events, err := s.timeline.List(ctx, id)
	if err != nil {
		return LineItemDetails{}, fmt.Errorf("load timeline: %w", err)
	}
	details.Timeline = events
	return details, nil
}

// ListOrders возвращает страницу заказов, новые первыми. Пустая страница — не ошибка.
func (s *Service) ListOrders(ctx context.Context, page domain.PageRequest) (domain.OrderPage, error) {
	return s.orders.List(ctx, page)
}

func (s *Service) observe(operation string, start time.Time, err *error) {
	outcome := "ok"
	if *err != nil {
		outcome = string(domain.KindOf(*err))
	}
	s.metrics.ObserveOperation(operation, outcome, s.now().Sub(start))
}
