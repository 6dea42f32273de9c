package domain

import (
	"sort"
	"strings"
)

// PaginateLineItems применяет условие, сортировку и нарезку страницы к набору позиций.
// TotalElements считается по всем совпадениям, а не только по странице.
// Страница должна быть нормализована через PageRequest.Normalize.
func PaginateLineItems(items []LineItem, predicate Predicate, page PageRequest) LineItemPage {
	if predicate == nil {
		predicate = Always
	}

	matched := make([]LineItem, 0, len(items))
	for _, item := range items {
		if predicate(item) {
			matched = append(matched, item)
		}
	}

	less := lineItemLess(page.Sort)
	sort.SliceStable(matched, func(i, j int) bool {
		return less(matched[i], matched[j])
	})

	total := int64(len(matched))
	result := LineItemPage{
		Items:         []LineItem{},
		TotalElements: total,
		TotalPages:    TotalPages(total, page.Size),
	}

	offset := page.Offset()
	if offset >= total {
		return result
	}
	end := offset + int64(page.Size)
	if end > total {
		end = total
	}
	result.Items = append(result.Items, matched[offset:end]...)
	return result
}

// lineItemLess строит функцию сравнения; при равенстве ключа порядок
// определяется id, чтобы выдача была детерминированной.
func lineItemLess(s Sort) func(a, b LineItem) bool {
	compare := func(a, b LineItem) int {
		switch s.Field {
		case SortByCreatedAt:
			return a.CreatedAt.Compare(b.CreatedAt)
		case SortByPrice:
			return a.Price.Cmp(b.Price)
		case SortByQuantity:
			return cmpInt64(int64(a.Quantity), int64(b.Quantity))
		case SortByStatus:
			return strings.Compare(string(a.Status), string(b.Status))
		default:
			return 0
		}
	}

	return func(a, b LineItem) bool {
		c := compare(a, b)
		if c == 0 {
			c = cmpInt64(a.ID, b.ID)
		}
		if s.Desc {
			return c > 0
		}
		return c < 0
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
