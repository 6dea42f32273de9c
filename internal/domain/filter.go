package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultPageSize используется, если размер страницы не передан.
	DefaultPageSize = 1000
	// MaxPageSize ограничивает размер страницы сверху.
	MaxPageSize = 1000
)

// LineItemFilter — набор необязательных критериев выборки позиций.
// nil означает «критерий не задан».
type LineItemFilter struct {
	Status    *LineItemStatus
	StartDate *time.Time
	EndDate   *time.Time
	ItemID    *int64
}

// Validate проверяет согласованность критериев.
func (f LineItemFilter) Validate() error {
	if f.Status != nil && !f.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, string(*f.Status))
	}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// SortField — поле, по которому допустима сортировка.
type SortField string

const (
	SortByID        SortField = "id"
	SortByCreatedAt SortField = "createdAt"
	SortByPrice     SortField = "price"
	SortByQuantity  SortField = "quantity"
	SortByStatus    SortField = "status"
)

func (f SortField) valid() bool {
	switch f {
	case SortByID, SortByCreatedAt, SortByPrice, SortByQuantity, SortByStatus:
		return true
	default:
		return false
	}
}

// Sort задаёт порядок выдачи. Нулевое значение — по id по убыванию.
type Sort struct {
	Field SortField
	Desc  bool
}

// DefaultSort — новые позиции первыми.
var DefaultSort = Sort{Field: SortByID, Desc: true}

// ParseSort разбирает строку вида "field" или "field,desc|asc".
// Пустая строка даёт DefaultSort.
func ParseSort(raw string) (Sort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultSort, nil
	}

	parts := strings.Split(raw, ",")
	sort := Sort{Field: SortField(strings.TrimSpace(parts[0]))}
	if !sort.Field.valid() {
		return Sort{}, fmt.Errorf("%w: %q", ErrInvalidSort, parts[0])
	}
	if len(parts) > 1 {
		switch strings.ToLower(strings.TrimSpace(parts[1])) {
		case "desc":
			sort.Desc = true
		case "asc", "":
		default:
			return Sort{}, fmt.Errorf("%w: direction %q", ErrInvalidSort, parts[1])
		}
	}
	return sort, nil
}

// PageRequest — номер страницы (с нуля), её размер и порядок.
type PageRequest struct {
	Index int
	Size  int
	Sort  Sort
}

// Normalize подставляет значения по умолчанию и проверяет границы.
func (p PageRequest) Normalize() (PageRequest, error) {
	if p.Size == 0 {
		p.Size = DefaultPageSize
	}
	if p.Index < 0 || p.Size < 0 {
		return PageRequest{}, ErrInvalidPage
	}
	if p.Size > MaxPageSize {
		return PageRequest{}, ErrPageTooLarge
	}
	if p.Sort.Field == "" {
		p.Sort = DefaultSort
	}
	if !p.Sort.Field.valid() {
		return PageRequest{}, fmt.Errorf("%w: %q", ErrInvalidSort, string(p.Sort.Field))
	}
	return p, nil
}

// Offset возвращает количество пропускаемых записей.
func (p PageRequest) Offset() int64 {
	return int64(p.Index) * int64(p.Size)
}

// Page — страница результатов вместе с общим количеством совпадений.
type Page[T any] struct {
	Items         []T
	TotalElements int64
	TotalPages    int
}

// LineItemPage — страница позиций заказа.
type LineItemPage = Page[LineItem]

// OrderPage — страница заказов.
type OrderPage = Page[Order]

// TotalPages вычисляет ceil(total / size).
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
