package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/go-realty-platform/auth-service/internal/models"
	"github.com/pribylovaa/go-realty-platform/auth-service/internal/storage"
)

// SaveToken сохраняет новую запись checklist и проставляет ID из БД.
func (s *Storage) SaveToken(ctx context.Context, token *models.TokenRecord) error {
	const op = "storage.postgres.SaveToken"

	query := `
        INSERT INTO tokens(user_id, jti, token_type, signed_value, issued_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `

	var userID *uuid.UUID
	if token.UserID.Valid {
		userID = &token.UserID.UUID
	}

	err := s.db.QueryRow(ctx, query,
		userID,
		token.JTI,
		string(token.TokenType),
		token.SignedValue,
		token.IssuedAt,
		token.ExpiresAt,
	).Scan(&token.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// TokenByJTI находит запись checklist по jti.
func (s *Storage) TokenByJTI(ctx context.Context, jti uuid.UUID) (*models.TokenRecord, error) {
	const op = "storage.postgres.TokenByJTI"

	query := `
        SELECT id, user_id, jti, token_type, signed_value, issued_at, expires_at
        FROM tokens
        WHERE jti = $1
    `

	token, err := scanToken(s.db.QueryRow(ctx, query, jti))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// ActiveTokensByUser возвращает checklist пользователя: записи без
// blacklist-отметки, от новых к старым. Просроченные записи не
// отфильтровываются — истёкший access-токен легитимен при ротации.
func (s *Storage) ActiveTokensByUser(ctx context.Context, userID uuid.UUID) ([]models.TokenRecord, error) {
	const op = "storage.postgres.ActiveTokensByUser"

	query := `
        SELECT t.id, t.user_id, t.jti, t.token_type, t.signed_value, t.issued_at, t.expires_at
        FROM tokens t
        LEFT JOIN blacklisted_tokens b ON b.token_id = t.id
        WHERE t.user_id = $1 AND b.token_id IS NULL
        ORDER BY t.issued_at DESC, t.id DESC
    `

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.TokenRecord
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		out = append(out, *token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// DeleteExpiredTokens удаляет записи с expires_at <= now.
// Связанные blacklist-записи удаляются каскадом на уровне схемы.
func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.postgres.DeleteExpiredTokens"

	query := `
        DELETE FROM tokens
        WHERE expires_at <= $1
    `

	cmdTag, err := s.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected(), nil
}

// scanToken читает одну строку checklist в модель.
func scanToken(row pgx.Row) (*models.TokenRecord, error) {
	var (
		token     models.TokenRecord
		userID    *uuid.UUID
		tokenType string
	)

	err := row.Scan(
		&token.ID,
		&userID,
		&token.JTI,
		&tokenType,
		&token.SignedValue,
		&token.IssuedAt,
		&token.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	if userID != nil {
		token.UserID = uuid.NullUUID{UUID: *userID, Valid: true}
	}
	token.TokenType = models.TokenType(tokenType)

	return &token, nil
}
