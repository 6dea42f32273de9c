// Package httpapi отдаёт операции над заказами по HTTP/JSON.
package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/retail-oms/internal/service/ordering"
)

// IdempotencyHeader — заголовок с ключом идемпотентности для POST /order/create.
const IdempotencyHeader = "Idempotency-Key"

// NewRouter собирает gin.Engine со всеми маршрутами сервиса.
func NewRouter(api *ordering.API, logger *log.Entry) *gin.Engine {
	if logger == nil {
		logger = log.WithField("component", "http")
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), actorMiddleware(time.Now))

	h := newHandler(api, logger)
	orders := router.Group("/order")
	orders.POST("/create", h.placeOrder)
	orders.PUT("/update-item-status/:orderItemId", h.updateLineItemStatus)
	orders.GET("/filter", h.filterLineItems)
	orders.GET("/all", h.listOrders)
	orders.GET("/item/:orderItemId", h.getLineItem)
	orders.GET("/:orderId", h.getOrder)

	return router
}
