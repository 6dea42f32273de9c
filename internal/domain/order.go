package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product — товар каталога. Ядро только читает его через CatalogLookup.
type Product struct {
	ID         int64
	Name       string
	UnitPrice  decimal.Decimal
	CategoryID int64
}

// Actor — пользователь, от имени которого выполняется запрос.
type Actor struct {
	ID    int64
	Email string
}

// LineItem — позиция заказа. Цена фиксируется в момент создания:
// UnitPrice × Quantity и дальше не пересчитывается.
type LineItem struct {
	ID        int64
	OrderID   int64
	ActorID   int64
	ProductID int64
	Quantity  int32
	// Price — итоговая цена позиции (цена за единицу × количество).
	Price     decimal.Decimal
	Status    LineItemStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Order агрегирует позиции, созданные одним запросом, и итоговую сумму.
type Order struct {
	ID         int64
	Items      []LineItem
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
}

// NewLineItem оценивает позицию по текущей цене товара.
// Позиция создаётся в статусе PENDING и привязывается к пользователю.
func NewLineItem(product Product, quantity int32, actor Actor, now time.Time) (LineItem, error) {
	if quantity < 1 {
		return LineItem{}, ErrQuantityInvalid
	}
	if product.UnitPrice.IsNegative() {
		return LineItem{}, ErrPriceNegative
	}

	return LineItem{
		ActorID:   actor.ID,
		ProductID: product.ID,
		Quantity:  quantity,
		Price:     product.UnitPrice.Mul(decimal.NewFromInt32(quantity)),
		Status:    LineItemStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ApplyStatus переводит позицию в новый статус. Граф переходов не ограничен:
// из любого статуса допустим любой, повторное применение ничего не меняет.
func (li *LineItem) ApplyStatus(status LineItemStatus, at time.Time) error {
	if !status.Valid() {
		return ErrUnknownStatus
	}
	if li.Status == status {
		return nil
	}
	li.Status = status
	li.UpdatedAt = at
	return nil
}

// ItemsTotal возвращает сумму цен всех позиций.
func ItemsTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price)
	}
	return total
}

// MoneyScale — число знаков после запятой в денежных колонках.
const MoneyScale = 2

// FitsMoneyScale сообщает, представима ли сумма с MoneyScale знаками без округления.
func FitsMoneyScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(MoneyScale))
}

// ResolveTotal выбирает итоговую сумму заказа: переданная клиентом сумма
// используется как есть, если она задана и больше нуля, иначе берётся сумма позиций.
func ResolveTotal(supplied *decimal.Decimal, items []LineItem) decimal.Decimal {
	if supplied != nil && supplied.IsPositive() {
		return *supplied
	}
	return ItemsTotal(items)
}

// ValidateInvariants проверяет базовые инварианты агрегата и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.TotalPrice.IsNegative() {
		errs = append(errs, ErrTotalNegative)
	}
	if !FitsMoneyScale(o.TotalPrice) {
		errs = append(errs, ErrTotalScale)
	}

	for _, item := range o.Items {
		if item.Quantity < 1 {
			errs = append(errs, ErrQuantityInvalid)
		}
		if item.Price.IsNegative() {
			errs = append(errs, ErrPriceNegative)
		}
		if !item.Status.Valid() {
			errs = append(errs, ErrUnknownStatus)
		}
	}

	return errs
}

// AttachItems проставляет идентификатор заказа во все позиции.
func (o *Order) AttachItems() {
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
}
