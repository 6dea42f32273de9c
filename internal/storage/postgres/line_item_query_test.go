package postgres

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
)

func TestBuildLineItemQuery_NoCriteria(t *testing.T) {
	q := buildLineItemQuery(domain.LineItemFilter{}, domain.PageRequest{Index: 1, Size: 10, Sort: domain.DefaultSort})

	require.Equal(t, "SELECT COUNT(*) FROM order_items", q.count)
	require.Equal(t,
		"SELECT "+lineItemColumns+" FROM order_items ORDER BY id DESC LIMIT $1 OFFSET $2",
		q.selectPage,
	)
	require.Empty(t, q.args)
	require.Equal(t, []any{10, int64(10)}, q.pageArgs())
}

func TestBuildLineItemQuery_AllCriteria(t *testing.T) {
	status := domain.LineItemStatusShipped
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	itemID := int64(42)

	q := buildLineItemQuery(
		domain.LineItemFilter{Status: &status, StartDate: &start, EndDate: &end, ItemID: &itemID},
		domain.PageRequest{Size: 5, Sort: domain.Sort{Field: domain.SortByPrice}},
	)

	where := " WHERE status = $1 AND created_at >= $2 AND created_at <= $3 AND id = $4"
	require.Equal(t, "SELECT COUNT(*) FROM order_items"+where, q.count)
	require.Equal(t,
		"SELECT "+lineItemColumns+" FROM order_items"+where+" ORDER BY price ASC, id ASC LIMIT $5 OFFSET $6",
		q.selectPage,
	)
	require.Equal(t, []any{"SHIPPED", start, end, itemID}, q.args)
	require.Equal(t, []any{"SHIPPED", start, end, itemID, 5, int64(0)}, q.pageArgs())
}

func TestBuildLineItemQuery_OnlyEndDate(t *testing.T) {
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	q := buildLineItemQuery(
		domain.LineItemFilter{EndDate: &end},
		domain.PageRequest{Size: 5, Sort: domain.Sort{Field: domain.SortByCreatedAt, Desc: true}},
	)

	require.Equal(t, "SELECT COUNT(*) FROM order_items WHERE created_at <= $1", q.count)
	require.Contains(t, q.selectPage, "ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3")
}

func TestReadSnapshotOptions(t *testing.T) {
	require.True(t, readSnapshot.ReadOnly)
	require.Equal(t, sql.LevelRepeatableRead, readSnapshot.Isolation)
}
