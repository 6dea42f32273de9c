package domain

import (
	"errors"
	"fmt"
)

// Базовые виды ошибок. Транспортные слои сопоставляют их с кодами ответа,
// конкретные ошибки ниже оборачивают один из видов.
var (
	// ErrNotFound — запрошенная сущность отсутствует или выборка пуста.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument — некорректные входные данные.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnauthenticated — не удалось определить текущего пользователя.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrConflict — запись с таким идентификатором уже существует.
	ErrConflict = errors.New("conflict")
	// ErrAborted — операцию стоит повторить позже: конкурирующий запрос ещё выполняется.
	ErrAborted = errors.New("aborted")
)

var (
	// ErrProductNotFound возвращается каталогом, если товара с таким id нет.
	ErrProductNotFound = fmt.Errorf("%w: product not found", ErrNotFound)
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = fmt.Errorf("%w: order not found", ErrNotFound)
	// ErrLineItemNotFound возвращается, если позиция заказа не найдена.
	ErrLineItemNotFound = fmt.Errorf("%w: order item not found", ErrNotFound)
	// ErrNoLineItemsMatched — фильтр не вернул ни одной позиции.
	ErrNoLineItemsMatched = fmt.Errorf("%w: no order items matched the filter", ErrNotFound)

	// ErrItemsRequired — в заказе должна быть хотя бы одна позиция.
	ErrItemsRequired = fmt.Errorf("%w: order must contain at least one item", ErrInvalidArgument)
	// ErrQuantityInvalid — количество товара в позиции меньше единицы.
	ErrQuantityInvalid = fmt.Errorf("%w: item quantity must be at least 1", ErrInvalidArgument)
	// ErrPriceNegative — отрицательная цена товара или позиции.
	ErrPriceNegative = fmt.Errorf("%w: price must be non-negative", ErrInvalidArgument)
	// ErrTotalNegative — отрицательная сумма заказа.
	ErrTotalNegative = fmt.Errorf("%w: order total must be non-negative", ErrInvalidArgument)
	// ErrTotalScale — у суммы заказа больше знаков после запятой, чем хранит БД.
	ErrTotalScale = fmt.Errorf("%w: order total must have at most 2 decimal places", ErrInvalidArgument)
	// ErrUnknownStatus — имя статуса не совпадает ни с одним из допустимых.
	ErrUnknownStatus = fmt.Errorf("%w: unknown order item status", ErrInvalidArgument)
	// ErrInvalidDateRange — startDate позже endDate.
	ErrInvalidDateRange = fmt.Errorf("%w: start date must not be after end date", ErrInvalidArgument)
	// ErrInvalidPage — отрицательный номер страницы или неположительный размер.
	ErrInvalidPage = fmt.Errorf("%w: page index must be >= 0 and page size > 0", ErrInvalidArgument)
	// ErrPageTooLarge — размер страницы больше MaxPageSize.
	ErrPageTooLarge = fmt.Errorf("%w: page size exceeds the maximum of %d", ErrInvalidArgument, MaxPageSize)
	// ErrInvalidSort — сортировка по неподдерживаемому полю.
	ErrInvalidSort = fmt.Errorf("%w: unsupported sort field", ErrInvalidArgument)

	// ErrActorRequired — запрос пришёл без идентификатора пользователя.
	ErrActorRequired = fmt.Errorf("%w: actor is required", ErrUnauthenticated)

	// ErrOrderAlreadyExists — повторная вставка заказа с тем же id.
	ErrOrderAlreadyExists = fmt.Errorf("%w: order already exists", ErrConflict)

	// Ошибки idempotency-хранилища.
	ErrIdempotencyKeyRequired         = fmt.Errorf("%w: idempotency key is required", ErrInvalidArgument)
	ErrIdempotencyRequestHashRequired = fmt.Errorf("%w: idempotency request hash is required", ErrInvalidArgument)
	ErrIdempotencyKeyNotFound         = fmt.Errorf("%w: idempotency key not found", ErrNotFound)
	ErrIdempotencyKeyAlreadyExists    = fmt.Errorf("%w: idempotency key already exists", ErrConflict)
	ErrIdempotencyHashMismatch        = fmt.Errorf("%w: idempotency key reused with different payload", ErrConflict)
	ErrIdempotencyInProgress          = fmt.Errorf("%w: request with this idempotency key is still in progress", ErrAborted)

	// ErrOutboxPublish — ошибка при публикации или отметке сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// ErrorKind классифицирует ошибку для транспортного слоя.
type ErrorKind string

const (
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindInvalidArgument ErrorKind = "INVALID_ARGUMENT"
	KindUnauthenticated ErrorKind = "UNAUTHENTICATED"
	KindConflict        ErrorKind = "CONFLICT"
	KindAborted         ErrorKind = "ABORTED"
	KindInternal        ErrorKind = "INTERNAL"
)

// KindOf возвращает вид ошибки. Всё, что не обёрнуто в один из базовых видов,
// считается внутренней ошибкой.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrAborted):
		return KindAborted
	default:
		return KindInternal
	}
}

// IsIdempotencyConflict проверяет, относится ли ошибка к конфликту idempotency-ключа.
func IsIdempotencyConflict(err error) bool {
	return errors.Is(err, ErrIdempotencyKeyAlreadyExists) || errors.Is(err, ErrIdempotencyHashMismatch)
}
