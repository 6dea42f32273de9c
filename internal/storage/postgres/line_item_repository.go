package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
)

var sortColumns = map[domain.SortField]string{
	domain.SortByID:        "id",
	domain.SortByCreatedAt: "created_at",
	domain.SortByPrice:     "price",
	domain.SortByQuantity:  "quantity",
	domain.SortByStatus:    "status",
}

type lineItemRepository struct {
	store *Store
}

// NewLineItemRepository создаёт PostgreSQL-реализацию LineItemRepository.
func NewLineItemRepository(store *Store) domain.LineItemRepository {
	return &lineItemRepository{store: store}
}

func (r *lineItemRepository) Get(ctx context.Context, id int64) (domain.LineItem, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	item, err := scanLineItem(r.store.DB().QueryRowContext(ctx, `
		SELECT `+lineItemColumns+`
		FROM order_items
		WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LineItem{}, domain.ErrLineItemNotFound
	}
	return item, err
}

// UpdateStatus перезаписывает статус; updated_at сдвигается только при фактической смене.
func (r *lineItemRepository) UpdateStatus(ctx context.Context, id int64, status domain.LineItemStatus, at time.Time) (domain.LineItem, error) {
	if !status.Valid() {
		return domain.LineItem{}, fmt.Errorf("%w: %q", domain.ErrUnknownStatus, string(status))
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	item, err := scanLineItem(r.store.DB().QueryRowContext(ctx, `
		UPDATE order_items
		SET updated_at = CASE WHEN status = $2 THEN updated_at ELSE $3 END,
		    status = $2
		WHERE id = $1
		RETURNING `+lineItemColumns,
		id, string(status), at,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LineItem{}, domain.ErrLineItemNotFound
	}
	return item, err
}

func (r *lineItemRepository) Find(ctx context.Context, filter domain.LineItemFilter, page domain.PageRequest) (domain.LineItemPage, error) {
	if err := filter.Validate(); err != nil {
		return domain.LineItemPage{}, err
	}
	page, err := page.Normalize()
	if err != nil {
		return domain.LineItemPage{}, err
	}

	q := buildLineItemQuery(filter, page)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var result domain.LineItemPage
	err = r.store.inReadTx(ctx, func(tx *sql.Tx) error {
		var total int64
		if err := tx.QueryRowContext(ctx, q.count, q.args...).Scan(&total); err != nil {
			return fmt.Errorf("count order items: %w", err)
		}

		result = domain.LineItemPage{
			Items:         []domain.LineItem{},
			TotalElements: total,
			TotalPages:    domain.TotalPages(total, page.Size),
		}
		if page.Offset() >= total {
			return nil
		}

		rows, err := tx.QueryContext(ctx, q.selectPage, q.pageArgs()...)
		if err != nil {
			return fmt.Errorf("filter order items: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			item, err := scanLineItem(rows)
			if err != nil {
				return err
			}
			result.Items = append(result.Items, item)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.LineItemPage{}, err
	}
	return result, nil
}

// lineItemQuery — SQL-представление фильтра: те же необязательные критерии,
// что и в domain.BuildLineItemPredicate, объединённые через AND.
type lineItemQuery struct {
	count      string
	selectPage string
	args       []any
	limit      int
	offset     int64
}

func (q lineItemQuery) pageArgs() []any {
	args := make([]any, 0, len(q.args)+2)
	args = append(args, q.args...)
	return append(args, q.limit, q.offset)
}

func buildLineItemQuery(filter domain.LineItemFilter, page domain.PageRequest) lineItemQuery {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}

	if filter.Status != nil {
		add("status = ?", string(*filter.Status))
	}
	if filter.StartDate != nil {
		add("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("created_at <= ?", *filter.EndDate)
	}
	if filter.ItemID != nil {
		add("id = ?", *filter.ItemID)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	column, ok := sortColumns[page.Sort.Field]
	if !ok {
		column = "id"
	}
	direction := "ASC"
	if page.Sort.Desc {
		direction = "DESC"
	}
	orderBy := fmt.Sprintf(" ORDER BY %s %s", column, direction)
	if column != "id" {
		orderBy += ", id " + direction
	}

	n := len(args)
	return lineItemQuery{
		count: "SELECT COUNT(*) FROM order_items" + where,
		selectPage: "SELECT " + lineItemColumns + " FROM order_items" + where + orderBy +
			fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2),
		args:   args,
		limit:  page.Size,
		offset: page.Offset(),
	}
}

var _ domain.LineItemRepository = (*lineItemRepository)(nil)
