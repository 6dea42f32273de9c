package grpcsvc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/vladislavdragonenkov/retail-oms/internal/service/ordering"
)

// ServiceName — полное имя gRPC-сервиса.
const ServiceName = "retailoms.v1.OrderService"

// Полные имена методов.
const (
	MethodPlaceOrder           = "/" + ServiceName + "/PlaceOrder"
	MethodUpdateLineItemStatus = "/" + ServiceName + "/UpdateLineItemStatus"
	MethodFilterLineItems      = "/" + ServiceName + "/FilterLineItems"
	MethodGetOrder             = "/" + ServiceName + "/GetOrder"
	MethodGetLineItem          = "/" + ServiceName + "/GetLineItem"
	MethodListOrders           = "/" + ServiceName + "/ListOrders"
)

// UpdateLineItemStatusRequest — смена статуса позиции.
type UpdateLineItemStatusRequest struct {
	LineItemID int64  `json:"orderItemId"`
	Status     string `json:"status"`
}

// GetOrderRequest — чтение заказа.
type GetOrderRequest struct {
	OrderID int64 `json:"orderId"`
}

// GetLineItemRequest — чтение позиции.
type GetLineItemRequest struct {
	LineItemID int64 `json:"orderItemId"`
}

// ListOrdersRequest — страница заказов.
type ListOrdersRequest struct {
	Page int `json:"page,omitempty"`
	Size int `json:"size,omitempty"`
}

// OrderServiceServer — серверная часть retailoms.v1.OrderService.
type OrderServiceServer interface {
	PlaceOrder(context.Context, *ordering.PlaceOrderRequest) (*ordering.Response, error)
	UpdateLineItemStatus(context.Context, *UpdateLineItemStatusRequest) (*ordering.Response, error)
	FilterLineItems(context.Context, *ordering.FilterRequest) (*ordering.Response, error)
	GetOrder(context.Context, *GetOrderRequest) (*ordering.Response, error)
	GetLineItem(context.Context, *GetLineItemRequest) (*ordering.Response, error)
	ListOrders(context.Context, *ListOrdersRequest) (*ordering.Response, error)
}

// ServiceDesc описывает сервис для grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "PlaceOrder",
			Handler: unaryHandler(MethodPlaceOrder, func(s OrderServiceServer, ctx context.Context, req *ordering.PlaceOrderRequest) (*ordering.Response, error) {
				return s.PlaceOrder(ctx, req)
			}),
		},
		{
			MethodName: "UpdateLineItemStatus",
			Handler: unaryHandler(MethodUpdateLineItemStatus, func(s OrderServiceServer, ctx context.Context, req *UpdateLineItemStatusRequest) (*ordering.Response, error) {
				return s.UpdateLineItemStatus(ctx, req)
			}),
		},
		{
			MethodName: "FilterLineItems",
			Handler: unaryHandler(MethodFilterLineItems, func(s OrderServiceServer, ctx context.Context, req *ordering.FilterRequest) (*ordering.Response, error) {
				return s.FilterLineItems(ctx, req)
			}),
		},
		{
			MethodName: "GetOrder",
			Handler: unaryHandler(MethodGetOrder, func(s OrderServiceServer, ctx context.Context, req *GetOrderRequest) (*ordering.Response, error) {
				return s.GetOrder(ctx, req)
			}),
		},
		{
			MethodName: "GetLineItem",
			Handler: unaryHandler(MethodGetLineItem, func(s OrderServiceServer, ctx context.Context, req *GetLineItemRequest) (*ordering.Response, error) {
				return s.GetLineItem(ctx, req)
			}),
		},
		{
			MethodName: "ListOrders",
			Handler: unaryHandler(MethodListOrders, func(s OrderServiceServer, ctx context.Context, req *ListOrdersRequest) (*ordering.Response, error) {
				return s.ListOrders(ctx, req)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "retailoms/v1/order_service",
}

// RegisterOrderServiceServer регистрирует реализацию на сервере.
func RegisterOrderServiceServer(registrar grpc.ServiceRegistrar, srv OrderServiceServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

// unaryHandler строит grpc.MethodHandler: декодирует запрос и пропускает
// вызов через цепочку interceptor'ов.
func unaryHandler[Req any](
	fullMethod string,
	call func(OrderServiceServer, context.Context, *Req) (*ordering.Response, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OrderServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(OrderServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client — клиент OrderService поверх JSON-кодека.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient создаёт клиента поверх готового соединения.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) PlaceOrder(ctx context.Context, req *ordering.PlaceOrderRequest, opts ...grpc.CallOption) (*ordering.Response, error) {
	return invoke(ctx, c.conn, MethodPlaceOrder, req, opts)
}

func (c *Client) UpdateLineItemStatus(ctx context.Context, req *UpdateLineItemStatusRequest, opts ...grpc.CallOption) (*ordering.Response, error) {
	return invoke(ctx, c.conn, MethodUpdateLineItemStatus, req, opts)
}

func (c *Client) FilterLineItems(ctx context.Context, req *ordering.FilterRequest, opts ...grpc.CallOption) (*ordering.Response, error) {
	return invoke(ctx, c.conn, MethodFilterLineItems, req, opts)
}

func (c *Client) GetOrder(ctx context.Context, req *GetOrderRequest, opts ...grpc.CallOption) (*ordering.Response, error) {
	return invoke(ctx, c.conn, MethodGetOrder, req, opts)
}

func (c *Client) GetLineItem(ctx context.Context, req *GetLineItemRequest, opts ...grpc.CallOption) (*ordering.Response, error) {
	return invoke(ctx, c.conn, MethodGetLineItem, req, opts)
}

func (c *Client) ListOrders(ctx context.Context, req *ListOrdersRequest, opts ...grpc.CallOption) (*ordering.Response, error) {
	return invoke(ctx, c.conn, MethodListOrders, req, opts)
}

func invoke(ctx context.Context, conn grpc.ClientConnInterface, method string, req any, opts []grpc.CallOption) (*ordering.Response, error) {
	out := new(ordering.Response)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := conn.Invoke(ctx, method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
