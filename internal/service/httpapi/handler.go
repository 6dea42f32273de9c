package httpapi

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/ordering"
)

// Форматы дат, которые принимает /order/filter.
const dateOnlyLayout = "2006-01-02"

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	dateOnlyLayout,
}

type handler struct {
	api    *ordering.API
	logger *log.Entry
	now    func() time.Time
}

func newHandler(api *ordering.API, logger *log.Entry) *handler {
	return &handler{
		api:    api,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// POST /order/create
func (h *handler) placeOrder(c *gin.Context) {
	var req ordering.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: malformed request body: %v", domain.ErrInvalidArgument, err))
		return
	}
	key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	h.respond(c, h.api.PlaceOrder(c.Request.Context(), key, req))
}

// PUT /order/update-item-status/:orderItemId?status=
func (h *handler) updateLineItemStatus(c *gin.Context) {
	id, ok := h.idParam(c, "orderItemId")
	if !ok {
		return
	}
	h.respond(c, h.api.UpdateLineItemStatus(c.Request.Context(), id, c.Query("status")))
}

// GET /order/filter
func (h *handler) filterLineItems(c *gin.Context) {
	req, err := filterRequestFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, h.api.FilterLineItems(c.Request.Context(), req))
}

// GET /order/:orderId
func (h *handler) getOrder(c *gin.Context) {
	id, ok := h.idParam(c, "orderId")
	if !ok {
		return
	}
	h.respond(c, h.api.GetOrder(c.Request.Context(), id))
}

// GET /order/item/:orderItemId
func (h *handler) getLineItem(c *gin.Context) {
	id, ok := h.idParam(c, "orderItemId")
	if !ok {
		return
	}
	h.respond(c, h.api.GetLineItem(c.Request.Context(), id))
}

// GET /order/all?page=&size=
func (h *handler) listOrders(c *gin.Context) {
	page, err := intQuery(c, "page")
	if err != nil {
		h.fail(c, err)
		return
	}
	size, err := intQuery(c, "size")
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, h.api.ListOrders(c.Request.Context(), page, size))
}

func (h *handler) respond(c *gin.Context, resp ordering.Response) {
	c.JSON(resp.Status, resp)
}

func (h *handler) fail(c *gin.Context, err error) {
	h.respond(c, ordering.ErrorResponse(err, h.now()))
}

func (h *handler) idParam(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.fail(c, fmt.Errorf("%w: malformed %s %q", domain.ErrInvalidArgument, name, raw))
		return 0, false
	}
	return id, true
}

func filterRequestFromQuery(c *gin.Context) (ordering.FilterRequest, error) {
	req := ordering.FilterRequest{
		Status: c.Query("status"),
		Sort:   c.Query("sort"),
	}

	var err error
	if req.StartDate, err = dateQuery(c, "startDate", false); err != nil {
		return ordering.FilterRequest{}, err
	}
	if req.EndDate, err = dateQuery(c, "endDate", true); err != nil {
		return ordering.FilterRequest{}, err
	}
	if raw := strings.TrimSpace(c.Query("itemId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return ordering.FilterRequest{}, fmt.Errorf("%w: malformed itemId %q", domain.ErrInvalidArgument, raw)
		}
		req.ItemID = &id
	}
	if req.Page, err = intQuery(c, "page"); err != nil {
		return ordering.FilterRequest{}, err
	}
	if req.Size, err = intQuery(c, "size"); err != nil {
		return ordering.FilterRequest{}, err
	}
	return req, nil
}

// dateQuery разбирает дату из query. Дата без времени для верхней границы
// означает весь день целиком, то есть последний момент этого дня.
func dateQuery(c *gin.Context, name string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		parsed = parsed.UTC()
		if endOfDay && layout == dateOnlyLayout {
			parsed = parsed.Add(24*time.Hour - time.Microsecond)
		}
		return &parsed, nil
	}
	return nil, fmt.Errorf("%w: malformed %s %q", domain.ErrInvalidArgument, name, raw)
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed %s %q", domain.ErrInvalidArgument, name, raw)
	}
	return value, nil
}
