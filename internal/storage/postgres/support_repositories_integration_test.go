package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
)

func TestOutboxRepository_PostgresLifecycle(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOutboxRepository(store)
	ctx := context.Background()

	saved, err := repo.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: domain.AggregateTypeOrder,
		AggregateID:   "1",
		EventType:     domain.EventOrderPlaced,
		Payload:       []byte(`{"order_id":1}`),
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.PendingCount)
	require.False(t, stats.OldestPendingAt.IsZero())

	pending, err := repo.PullPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.JSONEq(t, `{"order_id":1}`, string(pending[0].Payload))

	require.NoError(t, repo.MarkSent(ctx, saved.ID))
	require.ErrorIs(t, repo.MarkFailed(ctx, "00000000-0000-0000-0000-000000000000"), domain.ErrOutboxPublish)

	stats, err = repo.Stats(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.PendingCount)
}

func TestIdempotencyRepository_PostgresLifecycle(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewIdempotencyRepository(store)
	ctx := context.Background()
	ttl := time.Now().UTC().Add(time.Hour).Round(time.Microsecond)

	created, err := repo.CreateProcessing(ctx, "key-1", "hash-a", ttl)
	require.NoError(t, err)
	require.Equal(t, domain.IdempotencyStatusProcessing, created.Status)

	_, err = repo.CreateProcessing(ctx, "key-1", "hash-a", ttl)
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyAlreadyExists)
	_, err = repo.CreateProcessing(ctx, "key-1", "hash-b", ttl)
	require.ErrorIs(t, err, domain.ErrIdempotencyHashMismatch)

	require.NoError(t, repo.MarkDone(ctx, "key-1", []byte(`{"status":201}`), 201))
	got, err := repo.Get(ctx, "key-1")
	require.NoError(t, err)
	require.Equal(t, domain.IdempotencyStatusDone, got.Status)
	require.Equal(t, 201, got.HTTPStatus)
	require.JSONEq(t, `{"status":201}`, string(got.ResponseBody))

	_, err = repo.CreateProcessing(ctx, "key-expired", "hash", time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	// Просроченный ключ можно занять заново.
	_, err = repo.CreateProcessing(ctx, "key-expired", "hash-new", ttl)
	require.NoError(t, err)

	_, err = repo.CreateProcessing(ctx, "key-old", "hash", time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	removed, err := repo.DeleteExpired(ctx, time.Now().UTC(), 10)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = repo.Get(ctx, "key-old")
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)
	require.ErrorIs(t, repo.MarkFailed(ctx, "missing", nil, 500), domain.ErrIdempotencyKeyNotFound)

	_, err = repo.CreateProcessing(ctx, "key-release", "hash", ttl)
	require.NoError(t, err)
	require.NoError(t, repo.Release(ctx, "key-release"))
	_, err = repo.Get(ctx, "key-release")
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)
	// Завершённый ключ Release не удаляет.
	require.ErrorIs(t, repo.Release(ctx, "key-1"), domain.ErrIdempotencyKeyNotFound)
}

func TestTimelineRepository_PostgresAppendList(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	orders := NewOrderRepository(store)
	timeline := NewTimelineRepository(store)
	ctx := context.Background()

	order, err := orders.Create(ctx, sampleOrder(time.Now().UTC(), "3.00"))
	require.NoError(t, err)
	item := order.Items[0]

	base := time.Now().UTC().Round(time.Microsecond)
	require.NoError(t, timeline.Append(ctx, domain.TimelineEvent{
		LineItemID: item.ID, OrderID: order.ID, ActorID: 7,
		From: domain.LineItemStatusPending, To: domain.LineItemStatusShipped, Occurred: base.Add(time.Minute),
	}))
	require.NoError(t, timeline.Append(ctx, domain.TimelineEvent{
		LineItemID: item.ID, OrderID: order.ID, ActorID: 7,
		To: domain.LineItemStatusPending, Occurred: base,
	}))

	events, err := timeline.List(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, domain.LineItemStatusPending, events[0].To)
	require.Equal(t, domain.LineItemStatus(""), events[0].From)
	require.Equal(t, domain.LineItemStatusShipped, events[1].To)
}
