// Package identity определяет пользователя запроса по данным, которые транспорт
// кладёт в context.Context.
package identity

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/vladislavdragonenkov/retail-oms/internal/domain"
)

const (
	// MetadataKey — ключ gRPC metadata с идентификатором пользователя.
	MetadataKey = "x-actor-id"
	// HeaderName — HTTP-заголовок с идентификатором пользователя.
	HeaderName = "X-Actor-ID"
	// EmailMetadataKey и EmailHeaderName передают email пользователя (необязательно).
	EmailMetadataKey = "x-actor-email"
	EmailHeaderName  = "X-Actor-Email"
)

type actorKey struct{}

// WithActor возвращает контекст с пользователем.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ParseActorID разбирает идентификатор пользователя из заголовка.
func ParseActorID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, domain.ErrActorRequired
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: malformed actor id %q", domain.ErrUnauthenticated, raw)
	}
	return id, nil
}

// ContextResolver достаёт пользователя из контекста запроса.
type ContextResolver struct{}

// NewContextResolver создаёт IdentityResolver поверх контекста.
func NewContextResolver() ContextResolver {
	return ContextResolver{}
}

func (ContextResolver) CurrentActor(ctx context.Context) (domain.Actor, error) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	if !ok || actor.ID <= 0 {
		return domain.Actor{}, domain.ErrActorRequired
	}
	return actor, nil
}

// Static всегда возвращает одного и того же пользователя; удобно в тестах и CLI.
type Static struct {
	Actor domain.Actor
}

func (s Static) CurrentActor(context.Context) (domain.Actor, error) {
	if s.Actor.ID <= 0 {
		return domain.Actor{}, domain.ErrActorRequired
	}
	return s.Actor, nil
}

var (
	_ domain.IdentityResolver = ContextResolver{}
	_ domain.IdentityResolver = Static{}
)
