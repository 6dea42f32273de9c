package grpcsvc

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/identity"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/ordering"
)

func TestCodeFor(t *testing.T) {
	tests := []struct {
		name string
		resp ordering.Response
		want codes.Code
	}{
		{"not found", ordering.Response{Error: domain.KindNotFound}, codes.NotFound},
		{"invalid", ordering.Response{Error: domain.KindInvalidArgument}, codes.InvalidArgument},
		{"unauthenticated", ordering.Response{Error: domain.KindUnauthenticated}, codes.Unauthenticated},
		{"hash mismatch", ordering.Response{Error: domain.KindConflict, Message: domain.ErrIdempotencyHashMismatch.Error()}, codes.AlreadyExists},
		{"in progress", ordering.Response{Error: domain.KindAborted, Message: "request is still in progress"}, codes.Aborted},
		{"conflict with in-progress wording", ordering.Response{Error: domain.KindConflict, Message: domain.ErrIdempotencyInProgress.Error()}, codes.AlreadyExists},
		{"internal", ordering.Response{Error: domain.KindInternal}, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := codeFor(tt.resp); got != tt.want {
				t.Fatalf("codeFor() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestReply(t *testing.T) {
	ok, err := reply(ordering.Response{Status: 200, Message: "done"})
	if err != nil || ok == nil || ok.Message != "done" {
		t.Fatalf("unexpected success reply: %+v, %v", ok, err)
	}

	resp, err := reply(ordering.Response{Status: 404, Error: domain.KindNotFound, Message: "order not found"})
	if resp != nil {
		t.Fatalf("expected nil response on failure, got %+v", resp)
	}
	st, _ := status.FromError(err)
	if st.Code() != codes.NotFound || st.Message() != "order not found" {
		t.Fatalf("unexpected status: %v", st)
	}
}

func TestActorInterceptor(t *testing.T) {
	interceptor := ActorInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: MethodPlaceOrder}

	var got domain.Actor
	var resolveErr error
	handler := func(ctx context.Context, _ any) (any, error) {
		got, resolveErr = identity.NewContextResolver().CurrentActor(ctx)
		return nil, nil
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		identity.MetadataKey, " 17 ",
		identity.EmailMetadataKey, "buyer@example.com",
	))
	if _, err := interceptor(ctx, nil, info, handler); err != nil {
		t.Fatalf("interceptor failed: %v", err)
	}
	if resolveErr != nil || got.ID != 17 || got.Email != "buyer@example.com" {
		t.Fatalf("unexpected actor: %+v, %v", got, resolveErr)
	}

	if _, err := interceptor(context.Background(), nil, info, handler); err != nil {
		t.Fatalf("interceptor without metadata failed: %v", err)
	}
	if resolveErr == nil {
		t.Fatal("expected missing actor without metadata")
	}

	bad := metadata.NewIncomingContext(context.Background(), metadata.Pairs(identity.MetadataKey, "-3"))
	if _, err := interceptor(bad, nil, info, handler); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
}

func TestMetadataValue(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		IdempotencyMetadataKey, "  ",
		IdempotencyMetadataKey, "key-1",
	))
	if got := metadataValue(ctx, IdempotencyMetadataKey); got != "key-1" {
		t.Fatalf("unexpected metadata value: %q", got)
	}
	if got := metadataValue(context.Background(), IdempotencyMetadataKey); got != "" {
		t.Fatalf("expected empty value, got %q", got)
	}
}

func TestJSONCodec(t *testing.T) {
	codec := jsonCodec{}
	if codec.Name() != CodecName {
		t.Fatalf("unexpected codec name: %s", codec.Name())
	}

	data, err := codec.Marshal(&GetOrderRequest{OrderID: 5})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var req GetOrderRequest
	if err := codec.Unmarshal(data, &req); err != nil || req.OrderID != 5 {
		t.Fatalf("unexpected decode: %+v, %v", req, err)
	}
	if err := codec.Unmarshal(nil, &req); err != nil {
		t.Fatalf("empty payload must decode: %v", err)
	}
}
