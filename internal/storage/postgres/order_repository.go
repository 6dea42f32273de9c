package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
)

const lineItemColumns = `id, order_id, actor_id, product_id, quantity, price, status, created_at, updated_at`

type orderRepository struct {
	store *Store
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{store: store}
}

// Create записывает заказ и позиции в одной транзакции.
func (r *orderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	if len(order.Items) == 0 {
		return domain.Order{}, domain.ErrItemsRequired
	}
	if !domain.FitsMoneyScale(order.TotalPrice) {
		return domain.Order{}, domain.ErrTotalScale
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	items := make([]domain.LineItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items

	err := r.store.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertOrder(ctx, tx, &order); err != nil {
			return err
		}
		order.AttachItems()

		for i := range order.Items {
			item := &order.Items[i]
			if err := tx.QueryRowContext(ctx, `
				INSERT INTO order_items (
					order_id, actor_id, product_id, quantity, price, status, created_at, updated_at
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
				RETURNING id
			`,
				item.OrderID, item.ActorID, item.ProductID, item.Quantity,
				item.Price, string(item.Status), item.CreatedAt, item.UpdatedAt,
			).Scan(&item.ID); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	return order, nil
}

func insertOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	var err error
	if order.ID != 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO orders (id, total_price, created_at) VALUES ($1,$2,$3)
		`, order.ID, order.TotalPrice, order.CreatedAt)
	} else {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO orders (total_price, created_at) VALUES ($1,$2)
			RETURNING id
		`, order.TotalPrice, order.CreatedAt).Scan(&order.ID)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderAlreadyExists
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var order domain.Order
	err := r.store.DB().QueryRowContext(ctx, `
		SELECT id, total_price, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.TotalPrice, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	grouped, err := loadItems(ctx, r.store.DB(), []int64{order.ID})
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = grouped[order.ID]
	return order, nil
}

func (r *orderRepository) List(ctx context.Context, page domain.PageRequest) (domain.OrderPage, error) {
	page, err := page.Normalize()
	if err != nil {
		return domain.OrderPage{}, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var result domain.OrderPage
	err = r.store.inReadTx(ctx, func(tx *sql.Tx) error {
		var total int64
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
			return fmt.Errorf("count orders: %w", err)
		}

		result = domain.OrderPage{
			Items:         []domain.Order{},
			TotalElements: total,
			TotalPages:    domain.TotalPages(total, page.Size),
		}
		if page.Offset() >= total {
			return nil
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT id, total_price, created_at
			FROM orders
			ORDER BY id DESC
			LIMIT $1 OFFSET $2
		`, page.Size, page.Offset())
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}

		ids := make([]int64, 0, page.Size)
		for rows.Next() {
			var order domain.Order
			if err := rows.Scan(&order.ID, &order.TotalPrice, &order.CreatedAt); err != nil {
				_ = rows.Close()
				return fmt.Errorf("scan order: %w", err)
			}
			result.Items = append(result.Items, order)
			ids = append(ids, order.ID)
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return fmt.Errorf("iterate orders: %w", err)
		}
		_ = rows.Close()

		grouped, err := loadItems(ctx, tx, ids)
		if err != nil {
			return err
		}
		for i := range result.Items {
			result.Items[i].Items = grouped[result.Items[i].ID]
		}
		return nil
	})
	if err != nil {
		return domain.OrderPage{}, err
	}
	return result, nil
}

// loadItems загружает позиции нескольких заказов одним запросом.
func loadItems(ctx context.Context, q queryer, orderIDs []int64) (map[int64][]domain.LineItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+lineItemColumns+`
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, id
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	grouped := make(map[int64][]domain.LineItem, len(orderIDs))
	for rows.Next() {
		item, err := scanLineItem(rows)
		if err != nil {
			return nil, err
		}
		grouped[item.OrderID] = append(grouped[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return grouped, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLineItem(row rowScanner) (domain.LineItem, error) {
	var (
		item   domain.LineItem
		status string
	)
	if err := row.Scan(
		&item.ID,
		&item.OrderID,
		&item.ActorID,
		&item.ProductID,
		&item.Quantity,
		&item.Price,
		&status,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return domain.LineItem{}, fmt.Errorf("scan order item: %w", err)
	}
	item.Status = domain.LineItemStatus(status)
	return item, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
