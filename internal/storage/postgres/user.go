package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pribylovaa/go-realty-platform/auth-service/internal/models"
	"github.com/pribylovaa/go-realty-platform/auth-service/internal/storage"
)

// UserByEmail находит пользователя по email.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgres.UserByEmail"

	query := `
        SELECT id, email, password_hash, role, is_active, created_at, updated_at
        FROM users
        WHERE email = $1
    `

	var user models.User
	err := s.db.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

// ActiveUserByID находит активного пользователя по ID.
// Неактивная учётная запись неотличима от отсутствующей: ErrNotFound.
func (s *Storage) ActiveUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.postgres.ActiveUserByID"

	query := `
        SELECT id, email, password_hash, role, is_active, created_at, updated_at
        FROM users
        WHERE id = $1 AND is_active = TRUE
    `

	var user models.User
	err := s.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}
