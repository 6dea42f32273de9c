package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/identity"
	"github.com/vladislavdragonenkov/retail-oms/internal/service/ordering"
)

// actorMiddleware переносит пользователя из X-Actor-ID в контекст запроса.
// Без заголовка запрос идёт дальше; решение, нужен ли пользователь, принимает операция.
func actorMiddleware(now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(identity.HeaderName))
		if raw == "" {
			c.Next()
			return
		}

		id, err := identity.ParseActorID(raw)
		if err != nil {
			resp := ordering.ErrorResponse(err, now().UTC())
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}

		ctx := identity.WithActor(c.Request.Context(), domain.Actor{
			ID:    id,
			Email: strings.TrimSpace(c.GetHeader(identity.EmailHeaderName)),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requestLogger(logger *log.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(log.Fields{
			"method":      c.Request.Method,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("http request failed")
			return
		}
		entry.Debug("http request handled")
	}
}
