package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenType — тип токена в паре.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenRecord — учётная запись выпущенного токена ("checklist").
//
// Описание:
//   - ID — суррогатный ключ, назначается БД;
//   - UserID — владелец; NULL, если пользователь удалён (запись при этом
//     сохраняется ради аудита, каскадного удаления нет);
//   - JTI — случайный идентификатор из payload токена, уникален глобально;
//   - SignedValue — полная подписанная строка токена;
//   - IssuedAt/ExpiresAt — границы жизни, задаются при выпуске и не меняются.
//
// Запись создаётся ровно один раз и не мутирует; из хранилища её убирает
// либо sweeper (по истечении срока), либо каскад при удалении blacklist-записи.
type TokenRecord struct {
	ID          int64
	UserID      uuid.NullUUID
	JTI         uuid.UUID
	TokenType   TokenType
	SignedValue string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// Expired сообщает, истёк ли срок действия токена на момент now.
func (t *TokenRecord) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
