package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/go-realty-platform/auth-service/internal/storage"
)

// AddToBlacklist отзывает токен по ID его записи checklist.
// Связь один-к-одному обеспечивает уникальный индекс token_id:
// повторная попытка — ErrAlreadyExists, исчезнувшая запись — ErrNotFound.
func (s *Storage) AddToBlacklist(ctx context.Context, tokenID int64) error {
	const op = "storage.postgres.AddToBlacklist"

	query := `
        INSERT INTO blacklisted_tokens(token_id, blacklisted_at)
        VALUES ($1, $2)
    `

	_, err := s.db.Exec(ctx, query, tokenID, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
			case pgerrcode.ForeignKeyViolation:
				return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
			}
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// IsBlacklisted сообщает, отозван ли токен с данным jti.
func (s *Storage) IsBlacklisted(ctx context.Context, jti uuid.UUID) (bool, error) {
	const op = "storage.postgres.IsBlacklisted"

	query := `
        SELECT EXISTS(
            SELECT 1
            FROM blacklisted_tokens b
            JOIN tokens t ON t.id = b.token_id
            WHERE t.jti = $1
        )
    `

	var blacklisted bool
	if err := s.db.QueryRow(ctx, query, jti).Scan(&blacklisted); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return blacklisted, nil
}
