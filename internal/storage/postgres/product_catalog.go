package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
)

// ProductCatalog читает товары из таблицы products.
type ProductCatalog struct {
	store *Store
}

// NewProductCatalog создаёт PostgreSQL-реализацию CatalogLookup.
func NewProductCatalog(store *Store) *ProductCatalog {
	return &ProductCatalog{store: store}
}

func (c *ProductCatalog) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var (
		product  domain.Product
		category sql.NullInt64
	)
	err := c.store.DB().QueryRowContext(ctx, `
		SELECT id, name, unit_price, category_id
		FROM products
		WHERE id = $1
	`, id).Scan(&product.ID, &product.Name, &product.UnitPrice, &category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	product.CategoryID = category.Int64
	return product, nil
}

// Seed добавляет товары, не трогая уже существующие id, и сдвигает последовательность.
func (c *ProductCatalog) Seed(ctx context.Context, products []domain.Product) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return c.store.inTx(ctx, func(tx *sql.Tx) error {
		for _, p := range products {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO products (id, name, unit_price, category_id)
				VALUES ($1,$2,$3,$4)
				ON CONFLICT (id) DO NOTHING
			`, p.ID, p.Name, p.UnitPrice, sql.NullInt64{Int64: p.CategoryID, Valid: p.CategoryID != 0}); err != nil {
				return fmt.Errorf("seed product %d: %w", p.ID, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `
			SELECT setval(pg_get_serial_sequence('products', 'id'), COALESCE(MAX(id), 1))
			FROM products
		`); err != nil {
			return fmt.Errorf("sync products sequence: %w", err)
		}
		return nil
	})
}

var _ domain.CatalogLookup = (*ProductCatalog)(nil)
