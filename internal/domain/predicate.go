package domain

import "time"

// Predicate — проверка позиции заказа на соответствие условию.
type Predicate func(LineItem) bool

// Always пропускает любую позицию; так ведёт себя незаданный критерий.
func Always(LineItem) bool { return true }

// And объединяет условия логическим И. nil-условия пропускаются.
func And(predicates ...Predicate) Predicate {
	active := make([]Predicate, 0, len(predicates))
	for _, p := range predicates {
		if p != nil {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return Always
	}

	return func(item LineItem) bool {
		for _, p := range active {
			if !p(item) {
				return false
			}
		}
		return true
	}
}

// HasStatus — точное совпадение статуса. nil не накладывает ограничений.
func HasStatus(status *LineItemStatus) Predicate {
	if status == nil {
		return nil
	}
	want := *status
	return func(item LineItem) bool {
		return item.Status == want
	}
}

// CreatedBetween проверяет дату создания. Обе границы включительные;
// если задана только одна, проверяется только она.
func CreatedBetween(start, end *time.Time) Predicate {
	switch {
	case start != nil && end != nil:
		from, to := *start, *end
		return func(item LineItem) bool {
			return !item.CreatedAt.Before(from) && !item.CreatedAt.After(to)
		}
	case start != nil:
		from := *start
		return func(item LineItem) bool {
			return !item.CreatedAt.Before(from)
		}
	case end != nil:
		to := *end
		return func(item LineItem) bool {
			return !item.CreatedAt.After(to)
		}
	default:
		return nil
	}
}

// HasItemID — точное совпадение идентификатора позиции.
func HasItemID(id *int64) Predicate {
	if id == nil {
		return nil
	}
	want := *id
	return func(item LineItem) bool {
		return item.ID == want
	}
}

// BuildLineItemPredicate собирает условие выборки из фильтра.
func BuildLineItemPredicate(filter LineItemFilter) Predicate {
	return And(
		HasStatus(filter.Status),
		CreatedBetween(filter.StartDate, filter.EndDate),
		HasItemID(filter.ItemID),
	)
}
