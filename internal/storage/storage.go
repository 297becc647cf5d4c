// storage задаёт контракты хранилища auth-сервиса: пользователи,
// checklist выпущенных токенов и blacklist отозванных.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-realty-platform/auth-service/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/токен).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (jti/blacklist-запись).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
// Сервис только читает: учётными записями управляет соседний сервис.
type UserStorage interface {
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// ActiveUserByID находит активного пользователя по ID.
	// Неактивный или удалённый пользователь — ErrNotFound.
	ActiveUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TokenStorage выполняет операции над checklist выпущенных токенов.
type TokenStorage interface {
	// SaveToken сохраняет новую запись о выпущенном токене.
	// Повтор jti — ErrAlreadyExists.
	SaveToken(ctx context.Context, token *models.TokenRecord) error
	// TokenByJTI находит запись по jti.
	TokenByJTI(ctx context.Context, jti uuid.UUID) (*models.TokenRecord, error)
	// ActiveTokensByUser возвращает checklist пользователя: записи, не
	// попавшие в blacklist, от новых к старым. Просроченные, но ещё не
	// удалённые sweeper'ом записи входят в выборку — при легитимной
	// ротации access-токен уже истёк.
	ActiveTokensByUser(ctx context.Context, userID uuid.UUID) ([]models.TokenRecord, error)
	// DeleteExpiredTokens удаляет записи с expires_at <= now,
	// возвращает число удалённых. Повторный вызов без новых вставок — 0.
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// BlacklistStorage выполняет операции над blacklist отозванных токенов.
type BlacklistStorage interface {
	// AddToBlacklist отзывает токен по ID его записи в checklist.
	// Токен может быть отозван не более одного раза: повтор — ErrAlreadyExists.
	AddToBlacklist(ctx context.Context, tokenID int64) error
	// IsBlacklisted сообщает, отозван ли токен с данным jti.
	IsBlacklisted(ctx context.Context, jti uuid.UUID) (bool, error)
}

// Storage задаёт контракт работы с БД.
//
// WithinTx исполняет fn над Storage, привязанным к одной транзакции:
// ротация обязана атомарно отозвать старую пару и сохранить новую, чтобы
// конкурентный читатель не увидел частичного состояния.
type Storage interface {
	UserStorage
	TokenStorage
	BlacklistStorage
	WithinTx(ctx context.Context, fn func(Storage) error) error
	Close()
}
