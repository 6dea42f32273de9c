package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
)

// DefaultTTL — сколько хранится ответ на запрос с idempotency-key.
const DefaultTTL = 24 * time.Hour

// Outcome — сериализованный ответ операции и его HTTP-статус.
// Retryable помечает ответ, который не зависит от тела запроса (нет
// аутентификации, внутренняя ошибка): такой ответ не сохраняется.
type Outcome struct {
	Body      []byte
	Status    int
	Retryable bool
}

// Guard выполняет операцию не более одного раза на ключ и повторно отдаёт
// сохранённый ответ. Ответы со статусом >= 400 сохраняются как failed,
// кроме Retryable: для них ключ освобождается.
type Guard struct {
	repo   domain.IdempotencyRepository
	ttl    time.Duration
	now    func() time.Time
	logger *log.Entry
}

// NewGuard создаёт Guard поверх репозитория ключей.
func NewGuard(repo domain.IdempotencyRepository, ttl time.Duration, logger *log.Entry) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.WithField("component", "idempotency-guard")
	}
	return &Guard{
		repo:   repo,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// Execute резервирует ключ и запускает run. Если ключ уже завершён, run не
// вызывается, а возвращается сохранённый ответ с replayed = true.
func (g *Guard) Execute(
	ctx context.Context,
	key, requestHash string,
	run func(context.Context) Outcome,
) (outcome Outcome, replayed bool, err error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Outcome{}, false, domain.ErrIdempotencyKeyRequired
	}

	record, err := g.repo.CreateProcessing(ctx, key, requestHash, g.now().Add(g.ttl))
	if err != nil {
		return g.replay(key, record, err)
	}

	outcome = run(ctx)

	// Ответ уже получен: запоминаем его даже если клиент отключился.
	storeCtx := context.WithoutCancel(ctx)
	switch {
	case outcome.Retryable:
		err = g.repo.Release(storeCtx, key)
	case outcome.Status < http.StatusBadRequest:
		err = g.repo.MarkDone(storeCtx, key, outcome.Body, outcome.Status)
	default:
		err = g.repo.MarkFailed(storeCtx, key, outcome.Body, outcome.Status)
	}
	if err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent response")
	}

	return outcome, false, nil
}

func (g *Guard) replay(key string, record domain.IdempotencyRecord, createErr error) (Outcome, bool, error) {
	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		return Outcome{}, false, createErr
	case errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
		switch record.Status {
		case domain.IdempotencyStatusProcessing:
			return Outcome{}, false, domain.ErrIdempotencyInProgress
		case domain.IdempotencyStatusDone, domain.IdempotencyStatusFailed:
			if len(record.ResponseBody) == 0 {
				return Outcome{}, false, fmt.Errorf("idempotency record %q has no stored response", key)
			}
			return Outcome{Body: record.ResponseBody, Status: record.HTTPStatus}, true, nil
		default:
			return Outcome{}, false, fmt.Errorf("idempotency record %q has unknown status %q", key, record.Status)
		}
	case domain.KindOf(createErr) == domain.KindInvalidArgument:
		return Outcome{}, false, createErr
	default:
		g.logger.WithError(createErr).WithField("idempotency_key", key).Warn("failed to create idempotency record")
		return Outcome{}, false, fmt.Errorf("reserve idempotency key: %w", createErr)
	}
}

// ScopedKey привязывает клиентский ключ к пользователю: одинаковые ключи
// разных пользователей не пересекаются.
func ScopedKey(actorID int64, key string) string {
	return strconv.FormatInt(actorID, 10) + ":" + strings.TrimSpace(key)
}

// HashRequest считает отпечаток запроса: sha256 от "method:json".
// encoding/json сериализует поля структур в порядке объявления, а ключи map
// сортирует, поэтому одинаковые запросы дают одинаковый хэш.
func HashRequest(method string, request any) (string, error) {
	if request == nil {
		return "", fmt.Errorf("request is nil")
	}

	data, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	payload := make([]byte, 0, len(method)+1+len(data))
	payload = append(payload, method...)
	payload = append(payload, ':')
	payload = append(payload, data...)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
