package app

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
	"github.com/vladislavdragonenkov/retail-oms/internal/metrics"
	grpcsvc "github.com/vladislavdragonenkov/retail-oms/internal/service/grpc"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/identity"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/ordering"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/outbox"
)

// OrderLifecycleTestSuite прогоняет жизненный цикл заказа через собранное
// приложение: in-memory хранилище, gRPC API и outbox worker.
type OrderLifecycleTestSuite struct {
	suite.Suite

	deps      runtimeDependencies
	server    *grpc.Server
	conn      *grpc.ClientConn
	client    *grpcsvc.Client
	publisher *capturingPublisher
	worker    *outbox.Worker
}

func (s *OrderLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel)
	logger := baseLogger.WithField("component", "lifecycle-test")

	cfg := testConfig()
	deps, err := initRuntimeDependencies(context.Background(), cfg, logger)
	s.Require().NoError(err)
	s.deps = deps

	api, err := newOrderingAPI(cfg, deps, logger)
	s.Require().NoError(err)

	lis := bufconn.Listen(1 << 20)
	s.server, _ = newGRPCServer(api, logger)
	go func() {
		_ = s.server.Serve(lis)
	}()

	s.conn, err = grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	s.Require().NoError(err)
	s.client = grpcsvc.NewClient(s.conn)

	s.publisher = &capturingPublisher{}
	s.worker = outbox.NewWorker(
		deps.outboxRepo,
		s.publisher,
		outbox.WithLogger(logger),
		outbox.WithMetrics(metrics.NewOutboxMetrics(prometheus.NewRegistry())),
		outbox.WithRetryBaseDelay(time.Millisecond),
	)
}

func (s *OrderLifecycleTestSuite) TearDownTest() {
	_ = s.conn.Close()
	s.server.Stop()
	s.deps.close(log.NewEntry(log.New()))
}

func (s *OrderLifecycleTestSuite) asActor(id string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), identity.MetadataKey, id)
}

func (s *OrderLifecycleTestSuite) placeOrder(ctx context.Context) *ordering.OrderDTO {
	resp, err := s.client.PlaceOrder(ctx, &ordering.PlaceOrderRequest{
		Items: []ordering.ItemRequest{
			{ProductID: 1, Quantity: 1},
			{ProductID: 2, Quantity: 2},
		},
	})
	s.Require().NoError(err)
	s.Require().NotNil(resp.Order)
	return resp.Order
}

func (s *OrderLifecycleTestSuite) TestPlaceShipDeliver() {
	ctx := s.asActor("7")

	// 1. Оформляем заказ из демонстрационного каталога
	order := s.placeOrder(ctx)
	require.True(s.T(), order.TotalPrice.Equal(decimal.RequireFromString("138.90")), "total %s", order.TotalPrice)
	require.Len(s.T(), order.Items, 2)
	for _, item := range order.Items {
		require.Equal(s.T(), "PENDING", item.Status)
		require.Equal(s.T(), int64(7), item.ActorID)
	}

	// 2. Проводим первую позицию по статусам
	itemID := order.Items[0].ID
	for _, next := range []string{"confirmed", "SHIPPED", "Delivered"} {
		_, err := s.client.UpdateLineItemStatus(ctx, &grpcsvc.UpdateLineItemStatusRequest{LineItemID: itemID, Status: next})
		require.NoError(s.T(), err)
	}

	// 3. Повтор того же статуса не пишет историю
	_, err := s.client.UpdateLineItemStatus(ctx, &grpcsvc.UpdateLineItemStatusRequest{LineItemID: itemID, Status: "DELIVERED"})
	require.NoError(s.T(), err)

	itemResp, err := s.client.GetLineItem(ctx, &grpcsvc.GetLineItemRequest{LineItemID: itemID})
	require.NoError(s.T(), err)
	require.Equal(s.T(), "DELIVERED", itemResp.LineItem.Status)

	var path []string
	for _, entry := range itemResp.LineItem.Timeline {
		path = append(path, entry.To)
	}
	require.Equal(s.T(), []string{"PENDING", "CONFIRMED", "SHIPPED", "DELIVERED"}, path)

	// 4. Остальные позиции не затронуты
	orderResp, err := s.client.GetOrder(ctx, &grpcsvc.GetOrderRequest{OrderID: order.ID})
	require.NoError(s.T(), err)
	require.Equal(s.T(), "PENDING", orderResp.Order.Items[1].Status)

	// 5. Фильтр по статусу видит только доставленную позицию
	filterResp, err := s.client.FilterLineItems(ctx, &ordering.FilterRequest{Status: "DELIVERED"})
	require.NoError(s.T(), err)
	require.Len(s.T(), filterResp.LineItemList, 1)
	require.Equal(s.T(), itemID, filterResp.LineItemList[0].ID)
}

func (s *OrderLifecycleTestSuite) TestOutboxDeliversEvents() {
	ctx := s.asActor("3")
	order := s.placeOrder(ctx)

	_, err := s.client.UpdateLineItemStatus(ctx, &grpcsvc.UpdateLineItemStatusRequest{
		LineItemID: order.Items[1].ID,
		Status:     "CANCELLED",
	})
	require.NoError(s.T(), err)

	stats, err := s.deps.outboxRepo.Stats(context.Background())
	require.NoError(s.T(), err)
	require.Equal(s.T(), 2, stats.PendingCount)

	require.Equal(s.T(), 2, s.worker.ProcessOnce(context.Background()))

	events := s.publisher.snapshot()
	require.Len(s.T(), events, 2)
	require.Equal(s.T(), domain.EventOrderPlaced, events[0].EventType)
	require.Equal(s.T(), domain.EventLineItemStatusChanged, events[1].EventType)

	var changed ordering.LineItemStatusChangedEvent
	require.NoError(s.T(), json.Unmarshal(events[1].Payload, &changed))
	require.Equal(s.T(), "PENDING", changed.From)
	require.Equal(s.T(), "CANCELLED", changed.To)
	require.Equal(s.T(), order.ID, changed.OrderID)

	stats, err = s.deps.outboxRepo.Stats(context.Background())
	require.NoError(s.T(), err)
	require.Zero(s.T(), stats.PendingCount)
}

func (s *OrderLifecycleTestSuite) TestIdempotentPlacement() {
	ctx := metadata.AppendToOutgoingContext(s.asActor("5"), grpcsvc.IdempotencyMetadataKey, "lifecycle-key")

	first := s.placeOrder(ctx)
	second := s.placeOrder(ctx)
	require.Equal(s.T(), first.ID, second.ID)

	listResp, err := s.client.ListOrders(s.asActor("5"), &grpcsvc.ListOrdersRequest{Page: 0, Size: 10})
	require.NoError(s.T(), err)
	require.Len(s.T(), listResp.OrderList, 1)

	_, err = s.client.PlaceOrder(ctx, &ordering.PlaceOrderRequest{
		Items: []ordering.ItemRequest{{ProductID: 3, Quantity: 1}},
	})
	require.Equal(s.T(), codes.AlreadyExists, status.Code(err))
}

func (s *OrderLifecycleTestSuite) TestRejectedPlacementLeavesNoTrace() {
	ctx := s.asActor("9")

	_, err := s.client.PlaceOrder(ctx, &ordering.PlaceOrderRequest{
		Items: []ordering.ItemRequest{{ProductID: 1, Quantity: 1}, {ProductID: 404, Quantity: 1}},
	})
	require.Equal(s.T(), codes.NotFound, status.Code(err))

	_, err = s.client.PlaceOrder(context.Background(), &ordering.PlaceOrderRequest{
		Items: []ordering.ItemRequest{{ProductID: 1, Quantity: 1}},
	})
	require.Equal(s.T(), codes.Unauthenticated, status.Code(err))

	stats, err := s.deps.outboxRepo.Stats(context.Background())
	require.NoError(s.T(), err)
	require.Zero(s.T(), stats.PendingCount)
}

func TestOrderLifecycle(t *testing.T) {
	suite.Run(t, new(OrderLifecycleTestSuite))
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []domain.OutboxMessage
}

func (p *capturingPublisher) Publish(_ context.Context, event domain.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) snapshot() []domain.OutboxMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.OutboxMessage(nil), p.events...)
}
