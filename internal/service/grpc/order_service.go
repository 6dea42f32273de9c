package grpcsvc

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/identity"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/ordering"
)

// IdempotencyMetadataKey — ключ metadata с idempotency-key для PlaceOrder.
const IdempotencyMetadataKey = "idempotency-key"

// OrderService реализует gRPC API поверх ordering.API.
// Успешный вызов возвращает конверт ordering.Response, ошибка — gRPC status
// с кодом по виду ошибки и текстом из конверта.
type OrderService struct {
	api    *ordering.API
	logger *log.Entry
}

// NewOrderService конструирует сервис с зависимостями.
func NewOrderService(api *ordering.API, logger *log.Entry) *OrderService {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &OrderService{api: api, logger: logger}
}

// PlaceOrder оформляет заказ. Ключ идемпотентности берётся из metadata.
func (s *OrderService) PlaceOrder(ctx context.Context, req *ordering.PlaceOrderRequest) (*ordering.Response, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	return reply(s.api.PlaceOrder(ctx, metadataValue(ctx, IdempotencyMetadataKey), *req))
}

func (s *OrderService) UpdateLineItemStatus(ctx context.Context, req *UpdateLineItemStatusRequest) (*ordering.Response, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	return reply(s.api.UpdateLineItemStatus(ctx, req.LineItemID, req.Status))
}

func (s *OrderService) FilterLineItems(ctx context.Context, req *ordering.FilterRequest) (*ordering.Response, error) {
	if req == nil {
		req = &ordering.FilterRequest{}
	}
	return reply(s.api.FilterLineItems(ctx, *req))
}

func (s *OrderService) GetOrder(ctx context.Context, req *GetOrderRequest) (*ordering.Response, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	return reply(s.api.GetOrder(ctx, req.OrderID))
}

func (s *OrderService) GetLineItem(ctx context.Context, req *GetLineItemRequest) (*ordering.Response, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	return reply(s.api.GetLineItem(ctx, req.LineItemID))
}

func (s *OrderService) ListOrders(ctx context.Context, req *ListOrdersRequest) (*ordering.Response, error) {
	if req == nil {
		req = &ListOrdersRequest{}
	}
	return reply(s.api.ListOrders(ctx, req.Page, req.Size))
}

func reply(resp ordering.Response) (*ordering.Response, error) {
	if resp.Failed() {
		return nil, status.Error(codeFor(resp), resp.Message)
	}
	return &resp, nil
}

// codeFor сопоставляет конверт ошибки с gRPC-кодом.
func codeFor(resp ordering.Response) codes.Code {
	switch resp.Error {
	case domain.KindNotFound:
		return codes.NotFound
	case domain.KindInvalidArgument:
		return codes.InvalidArgument
	case domain.KindUnauthenticated:
		return codes.Unauthenticated
	case domain.KindConflict:
		return codes.AlreadyExists
	case domain.KindAborted:
		return codes.Aborted
	default:
		return codes.Internal
	}
}

// ActorInterceptor кладёт в контекст пользователя из metadata x-actor-id.
// Без metadata вызов проходит дальше, а наличие пользователя проверяет сама
// операция; некорректный идентификатор отклоняется сразу.
func ActorInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		raw := metadataValue(ctx, identity.MetadataKey)
		if raw == "" {
			return handler(ctx, req)
		}
		id, err := identity.ParseActorID(raw)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		ctx = identity.WithActor(ctx, domain.Actor{
			ID:    id,
			Email: metadataValue(ctx, identity.EmailMetadataKey),
		})
		return handler(ctx, req)
	}
}

// LoggingInterceptor пишет в лог метод, код ответа и длительность вызова.
func LoggingInterceptor(logger *log.Entry) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		entry := logger.WithFields(log.Fields{
			"method":      info.FullMethod,
			"code":        status.Code(err).String(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if status.Code(err) == codes.Internal {
			entry.WithError(err).Warn("grpc call failed")
		} else {
			entry.Debug("grpc call handled")
		}
		return resp, err
	}
}

func metadataValue(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, value := range md.Get(key) {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

var _ OrderServiceServer = (*OrderService)(nil)
