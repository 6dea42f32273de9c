package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "nil error", err: nil, want: ""},
		{name: "product not found", err: ErrProductNotFound, want: KindNotFound},
		{name: "empty filter result", err: ErrNoLineItemsMatched, want: KindNotFound},
		{name: "wrapped line item not found", err: fmt.Errorf("load: %w", ErrLineItemNotFound), want: KindNotFound},
		{name: "unknown status", err: ErrUnknownStatus, want: KindInvalidArgument},
		{name: "quantity", err: ErrQuantityInvalid, want: KindInvalidArgument},
		{name: "actor required", err: ErrActorRequired, want: KindUnauthenticated},
		{name: "order exists", err: ErrOrderAlreadyExists, want: KindConflict},
		{name: "hash mismatch", err: ErrIdempotencyHashMismatch, want: KindConflict},
		{name: "key in progress", err: ErrIdempotencyInProgress, want: KindAborted},
		{name: "unclassified", err: errors.New("db is down"), want: KindInternal},
		{name: "outbox publish", err: ErrOutboxPublish, want: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsIdempotencyConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "idempotency already exists",
			err:  ErrIdempotencyKeyAlreadyExists,
			want: true,
		},
		{
			name: "idempotency hash mismatch",
			err:  ErrIdempotencyHashMismatch,
			want: true,
		},
		{
			name: "wrapped idempotency conflict",
			err:  errors.Join(ErrIdempotencyHashMismatch, errors.New("extra context")),
			want: true,
		},
		{
			name: "other conflict",
			err:  ErrOrderAlreadyExists,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsIdempotencyConflict(tt.err)
			if got != tt.want {
				t.Errorf("IsIdempotencyConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}
