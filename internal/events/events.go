// events описывает доменные события auth-сервиса и контракт их доставки.
//
// Ядро не шлёт уведомления само: сервисный слой формирует значение Event
// и передаёт его Dispatcher'у. Конкретная доставка (лог, шина, почтовый
// сервис) — забота реализации диспетчера, подключаемой при сборке.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	logctx "github.com/pribylovaa/go-realty-platform/auth-service/internal/pkg/log"
)

// Type — тип доменного события.
type Type string

const (
	// SessionIssued — пользователь вошёл, выпущена пара токенов.
	SessionIssued Type = "session_issued"
	// SessionRotated — пара токенов заменена новой при ротации.
	SessionRotated Type = "session_rotated"
	// SessionRevoked — сессия завершена, токены отозваны.
	SessionRevoked Type = "session_revoked"
)

// Event — значение доменного события.
type Event struct {
	Type   Type
	UserID uuid.UUID
	At     time.Time
}

// Dispatcher доставляет события внешним потребителям.
// Доставка не влияет на исход операции: ошибки диспетчера ядро не видит.
type Dispatcher interface {
	Dispatch(ctx context.Context, e Event)
}

// LogDispatcher пишет события в slog. Реализация по умолчанию.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(ctx context.Context, e Event) {
	logctx.From(ctx).Info("domain_event",
		slog.String("event", string(e.Type)),
		slog.String("user_id", e.UserID.String()),
		slog.Time("at", e.At),
	)
}
