package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
)

// OrderStore — in-memory хранилище заказов и их позиций.
// Один мьютекс защищает обе таблицы, поэтому заказ и позиции появляются атомарно.
type OrderStore struct {
	mu         sync.RWMutex
	orders     map[int64]orderRecord
	lineItems  map[int64]domain.LineItem
	nextOrder  int64
	nextItemID int64
}

// orderRecord хранит заказ без позиций; позиции лежат отдельно, как строки order_items.
type orderRecord struct {
	itemIDs []int64
	header  domain.Order
}

// NewOrderStore возвращает in-memory хранилище для локальной разработки и тестов.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:    make(map[int64]orderRecord),
		lineItems: make(map[int64]domain.LineItem),
	}
}

// Create присваивает идентификаторы и сохраняет заказ вместе с позициями.
func (s *OrderStore) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	if len(order.Items) == 0 {
		return domain.Order{}, domain.ErrItemsRequired
	}
	if !domain.FitsMoneyScale(order.TotalPrice) {
		return domain.Order{}, domain.ErrTotalScale
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID != 0 {
		if _, exists := s.orders[order.ID]; exists {
			return domain.Order{}, domain.ErrOrderAlreadyExists
		}
	} else {
		s.nextOrder++
		order.ID = s.nextOrder
	}
	if order.ID > s.nextOrder {
		s.nextOrder = order.ID
	}

	items := make([]domain.LineItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	order.AttachItems()

	record := orderRecord{itemIDs: make([]int64, 0, len(items))}
	for i := range order.Items {
		s.nextItemID++
		order.Items[i].ID = s.nextItemID
		s.lineItems[order.Items[i].ID] = order.Items[i]
		record.itemIDs = append(record.itemIDs, order.Items[i].ID)
	}
	header := order
	header.Items = nil
	record.header = header
	s.orders[order.ID] = record

	return cloneOrder(order), nil
}

// Get собирает заказ из заголовка и текущего состояния позиций.
func (s *OrderStore) Get(ctx context.Context, id int64) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return s.assemble(record), nil
}

// List возвращает страницу заказов, новые первыми.
func (s *OrderStore) List(ctx context.Context, page domain.PageRequest) (domain.OrderPage, error) {
	if err := ctx.Err(); err != nil {
		return domain.OrderPage{}, err
	}
	page, err := page.Normalize()
	if err != nil {
		return domain.OrderPage{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.orders))
	for id := range s.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	total := int64(len(ids))
	result := domain.OrderPage{
		Items:         []domain.Order{},
		TotalElements: total,
		TotalPages:    domain.TotalPages(total, page.Size),
	}
	offset := page.Offset()
	if offset >= total {
		return result, nil
	}
	end := offset + int64(page.Size)
	if end > total {
		end = total
	}
	for _, id := range ids[offset:end] {
		result.Items = append(result.Items, s.assemble(s.orders[id]))
	}
	return result, nil
}

// GetLineItem возвращает позицию или ErrLineItemNotFound.
func (s *OrderStore) GetLineItem(ctx context.Context, id int64) (domain.LineItem, error) {
	if err := ctx.Err(); err != nil {
		return domain.LineItem{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.lineItems[id]
	if !ok {
		return domain.LineItem{}, domain.ErrLineItemNotFound
	}
	return item, nil
}

// UpdateLineItemStatus меняет статус позиции под эксклюзивной блокировкой.
func (s *OrderStore) UpdateLineItemStatus(ctx context.Context, id int64, status domain.LineItemStatus, at time.Time) (domain.LineItem, error) {
	if err := ctx.Err(); err != nil {
		return domain.LineItem{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.lineItems[id]
	if !ok {
		return domain.LineItem{}, domain.ErrLineItemNotFound
	}
	if err := item.ApplyStatus(status, at); err != nil {
		return domain.LineItem{}, err
	}
	s.lineItems[id] = item
	return item, nil
}

// FindLineItems применяет фильтр, сортировку и пагинацию к снимку позиций.
func (s *OrderStore) FindLineItems(ctx context.Context, filter domain.LineItemFilter, page domain.PageRequest) (domain.LineItemPage, error) {
	if err := ctx.Err(); err != nil {
		return domain.LineItemPage{}, err
	}
	if err := filter.Validate(); err != nil {
		return domain.LineItemPage{}, err
	}
	page, err := page.Normalize()
	if err != nil {
		return domain.LineItemPage{}, err
	}

	s.mu.RLock()
	snapshot := make([]domain.LineItem, 0, len(s.lineItems))
	for _, item := range s.lineItems {
		snapshot = append(snapshot, item)
	}
	s.mu.RUnlock()

	return domain.PaginateLineItems(snapshot, domain.BuildLineItemPredicate(filter), page), nil
}

// LineItems возвращает представление хранилища как LineItemRepository.
func (s *OrderStore) LineItems() domain.LineItemRepository {
	return lineItemView{store: s}
}

// Ping нужен для readiness-проверки и всегда успешен.
func (s *OrderStore) Ping(context.Context) error {
	return nil
}

func (s *OrderStore) assemble(record orderRecord) domain.Order {
	order := record.header
	order.Items = make([]domain.LineItem, 0, len(record.itemIDs))
	for _, itemID := range record.itemIDs {
		order.Items = append(order.Items, s.lineItems[itemID])
	}
	return order
}

func cloneOrder(src domain.Order) domain.Order {
	dst := src
	dst.Items = append([]domain.LineItem(nil), src.Items...)
	return dst
}

// lineItemView адаптирует OrderStore к LineItemRepository.
type lineItemView struct {
	store *OrderStore
}

func (v lineItemView) Get(ctx context.Context, id int64) (domain.LineItem, error) {
	return v.store.GetLineItem(ctx, id)
}

func (v lineItemView) UpdateStatus(ctx context.Context, id int64, status domain.LineItemStatus, at time.Time) (domain.LineItem, error) {
	return v.store.UpdateLineItemStatus(ctx, id, status, at)
}

func (v lineItemView) Find(ctx context.Context, filter domain.LineItemFilter, page domain.PageRequest) (domain.LineItemPage, error) {
	return v.store.FindLineItems(ctx, filter, page)
}

var (
	_ domain.OrderRepository    = (*OrderStore)(nil)
	_ domain.LineItemRepository = lineItemView{}
)
