package models

import (
	"time"

	"github.com/google/uuid"
)

// User - модель пользователя в системе.
// Сервис не управляет регистрацией/активацией аккаунтов — только читает
// записи для проверки учётных данных и выпуска токенов.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
