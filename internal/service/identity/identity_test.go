package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
)

func TestContextResolver(t *testing.T) {
	resolver := NewContextResolver()

	if _, err := resolver.CurrentActor(context.Background()); !errors.Is(err, domain.ErrActorRequired) {
		t.Fatalf("expected ErrActorRequired, got %v", err)
	}

	ctx := WithActor(context.Background(), domain.Actor{ID: 5, Email: "buyer@example.com"})
	actor, err := resolver.CurrentActor(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actor.ID != 5 || actor.Email != "buyer@example.com" {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestParseActorID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr error
	}{
		{raw: "42", want: 42},
		{raw: " 7 ", want: 7},
		{raw: "", wantErr: domain.ErrActorRequired},
		{raw: "abc", wantErr: domain.ErrUnauthenticated},
		{raw: "-1", wantErr: domain.ErrUnauthenticated},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseActorID(tc.raw)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("got %d, %v; want %d", got, err, tc.want)
			}
		})
	}
}

func TestStatic(t *testing.T) {
	if _, err := (Static{}).CurrentActor(context.Background()); !errors.Is(err, domain.ErrActorRequired) {
		t.Fatalf("expected ErrActorRequired, got %v", err)
	}
	actor, err := Static{Actor: domain.Actor{ID: 1}}.CurrentActor(context.Background())
	if err != nil || actor.ID != 1 {
		t.Fatalf("unexpected result: %+v, %v", actor, err)
	}
}
