package idempotency

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
	"github.com/vladislavdragonenkov/retail-oms/internal/storage/memory"
)

func TestGuard_ReplaysStoredResponse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	guard := NewGuard(memory.NewIdempotencyRepository(), time.Hour, nil)

	calls := 0
	run := func(context.Context) Outcome {
		calls++
		return Outcome{Body: []byte(`{"status":200}`), Status: http.StatusOK}
	}

	first, replayed, err := guard.Execute(ctx, "key-1", "hash-1", run)
	require.NoError(t, err)
	require.False(t, replayed)

	second, replayed, err := guard.Execute(ctx, "key-1", "hash-1", run)
	require.NoError(t, err)
	require.True(t, replayed)
	require.Equal(t, first, second)
	require.Equal(t, 1, calls)
}

func TestGuard_ReplaysFailedResponse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewIdempotencyRepository()
	guard := NewGuard(repo, time.Hour, nil)

	run := func(context.Context) Outcome {
		return Outcome{Body: []byte(`{"status":404}`), Status: http.StatusNotFound}
	}
	_, _, err := guard.Execute(ctx, "key-2", "hash-2", run)
	require.NoError(t, err)

	record, err := repo.Get(ctx, "key-2")
	require.NoError(t, err)
	require.Equal(t, domain.IdempotencyStatusFailed, record.Status)

	outcome, replayed, err := guard.Execute(ctx, "key-2", "hash-2", run)
	require.NoError(t, err)
	require.True(t, replayed)
	require.Equal(t, http.StatusNotFound, outcome.Status)
}

func TestGuard_RetryableOutcomeReleasesKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewIdempotencyRepository()
	guard := NewGuard(repo, time.Hour, nil)

	outcomes := []Outcome{
		{Body: []byte(`{"status":500}`), Status: http.StatusInternalServerError, Retryable: true},
		{Body: []byte(`{"status":200}`), Status: http.StatusOK},
	}
	calls := 0
	run := func(context.Context) Outcome {
		out := outcomes[calls]
		calls++
		return out
	}

	first, replayed, err := guard.Execute(ctx, "key-r", "hash-r", run)
	require.NoError(t, err)
	require.False(t, replayed)
	require.Equal(t, http.StatusInternalServerError, first.Status)

	_, err = repo.Get(ctx, "key-r")
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)

	second, replayed, err := guard.Execute(ctx, "key-r", "hash-r", run)
	require.NoError(t, err)
	require.False(t, replayed)
	require.Equal(t, http.StatusOK, second.Status)
	require.Equal(t, 2, calls)
}

func TestScopedKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, "7:checkout", ScopedKey(7, " checkout "))
	require.NotEqual(t, ScopedKey(1, "k"), ScopedKey(2, "k"))
}

func TestGuard_Rejections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewIdempotencyRepository()
	guard := NewGuard(repo, time.Hour, nil)
	ok := func(context.Context) Outcome { return Outcome{Body: []byte(`{}`), Status: http.StatusOK} }

	_, _, err := guard.Execute(ctx, "  ", "hash", ok)
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyRequired)

	_, _, err = guard.Execute(ctx, "key-3", "hash-a", ok)
	require.NoError(t, err)
	_, _, err = guard.Execute(ctx, "key-3", "hash-b", ok)
	require.ErrorIs(t, err, domain.ErrIdempotencyHashMismatch)
	require.Equal(t, domain.KindConflict, domain.KindOf(err))

	_, err = repo.CreateProcessing(ctx, "key-4", "hash-c", time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, _, err = guard.Execute(ctx, "key-4", "hash-c", ok)
	require.ErrorIs(t, err, domain.ErrIdempotencyInProgress)
	require.Equal(t, domain.KindAborted, domain.KindOf(err))
}

func TestGuard_RepositoryFailureIsInternal(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	guard := NewGuard(memory.NewIdempotencyRepository(), time.Hour, nil)
	_, _, err := guard.Execute(ctx, "key-5", "hash", func(context.Context) Outcome {
		t.Fatal("run must not be called")
		return Outcome{}
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
	require.Equal(t, domain.KindInternal, domain.KindOf(err))
}

func TestHashRequest(t *testing.T) {
	t.Parallel()

	type payload struct {
		ProductID int64 `json:"productId"`
		Quantity  int32 `json:"quantity"`
	}

	a, err := HashRequest("PlaceOrder", payload{ProductID: 1, Quantity: 2})
	require.NoError(t, err)
	b, err := HashRequest("PlaceOrder", payload{ProductID: 1, Quantity: 2})
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Len(t, a, 64)

	c, err := HashRequest("PlaceOrder", payload{ProductID: 1, Quantity: 3})
	require.NoError(t, err)
	require.NotEqual(t, a, c)

	d, err := HashRequest("OtherMethod", payload{ProductID: 1, Quantity: 2})
	require.NoError(t, err)
	require.NotEqual(t, a, d)

	_, err = HashRequest("PlaceOrder", nil)
	require.Error(t, err)
}
