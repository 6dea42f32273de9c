package domain

import (
	"context"
	"time"
)

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет заказ вместе со всеми позициями атомарно: либо всё, либо ничего.
	// Присваивает идентификаторы заказу и позициям и возвращает сохранённый агрегат.
	Create(ctx context.Context, order Order) (Order, error)
	// Get возвращает заказ с позициями или ErrOrderNotFound.
	Get(ctx context.Context, id int64) (Order, error)
	// List возвращает страницу заказов в порядке убывания id.
	List(ctx context.Context, page PageRequest) (OrderPage, error)
}

// LineItemRepository описывает доступ к позициям заказов.
type LineItemRepository interface {
	// Get возвращает позицию или ErrLineItemNotFound.
	Get(ctx context.Context, id int64) (LineItem, error)
	// UpdateStatus меняет статус позиции и возвращает её новое состояние.
	// Последняя запись выигрывает; повтор того же статуса ничего не меняет.
	UpdateStatus(ctx context.Context, id int64, status LineItemStatus, at time.Time) (LineItem, error)
	// Find возвращает страницу позиций, удовлетворяющих фильтру.
	Find(ctx context.Context, filter LineItemFilter, page PageRequest) (LineItemPage, error)
}

// CatalogLookup — внешний каталог товаров.
type CatalogLookup interface {
	// GetByID возвращает товар или ErrProductNotFound.
	GetByID(ctx context.Context, id int64) (Product, error)
}

// IdentityResolver определяет пользователя текущего запроса.
type IdentityResolver interface {
	// CurrentActor возвращает пользователя или ошибку вида ErrUnauthenticated.
	CurrentActor(ctx context.Context) (Actor, error)
}
