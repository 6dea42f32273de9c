package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
)

// ProductCatalog — in-memory каталог товаров.
type ProductCatalog struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
}

// NewProductCatalog создаёт каталог с переданными товарами.
func NewProductCatalog(products ...domain.Product) *ProductCatalog {
	c := &ProductCatalog{products: make(map[int64]domain.Product, len(products))}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

// DemoProducts — набор товаров для локального запуска (OMS_SEED_CATALOG).
func DemoProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Mechanical Keyboard", UnitPrice: decimal.RequireFromString("89.90"), CategoryID: 1},
		{ID: 2, Name: "Wireless Mouse", UnitPrice: decimal.RequireFromString("24.50"), CategoryID: 1},
		{ID: 3, Name: "USB-C Hub", UnitPrice: decimal.RequireFromString("39.99"), CategoryID: 1},
		{ID: 4, Name: "Cotton T-Shirt", UnitPrice: decimal.RequireFromString("15.00"), CategoryID: 2},
		{ID: 5, Name: "Running Shoes", UnitPrice: decimal.RequireFromString("120.00"), CategoryID: 2},
	}
}

// GetByID возвращает товар или ErrProductNotFound.
func (c *ProductCatalog) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	product, ok := c.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// Put добавляет или заменяет товар.
func (c *ProductCatalog) Put(product domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.products[product.ID] = product
}

var _ domain.CatalogLookup = (*ProductCatalog)(nil)
