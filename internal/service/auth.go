package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-realty-platform/auth-service/internal/events"
	"github.com/pribylovaa/go-realty-platform/auth-service/internal/models"
	logctx "github.com/pribylovaa/go-realty-platform/auth-service/internal/pkg/log"
	"github.com/pribylovaa/go-realty-platform/auth-service/internal/pkg/redact"
	"github.com/pribylovaa/go-realty-platform/auth-service/internal/storage"
)

// Login выполняет вход по email+пароль и выпускает новую пару токенов.
//
// Отказы:
//   - ErrInvalidCredentials — неизвестный email, неверный пароль или
//     неактивная учётная запись (снаружи неразличимы намеренно);
//   - ErrPermissionDenied — роли пользователя не разрешён выпуск токенов.
func (s *Service) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	const op = "service.auth.Login"

	normEmail := strings.ToLower(strings.TrimSpace(email))
	if normEmail == "" || len(password) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		// Email в логах — только в урезанном виде.
		logctx.From(ctx).Info("login_failed",
			slog.String("op", op),
			slog.String("email", redact.Email(normEmail)),
		)

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if !user.Role.HasPermission(models.PermIssueJWT) {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	pair, err := s.issuePair(ctx, s.storage, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logctx.From(ctx).Info("login_succeeded",
		slog.String("op", op),
		slog.String("email", redact.Email(normEmail)),
		slog.String("user_id", user.ID.String()),
	)

	s.dispatch(ctx, events.Event{Type: events.SessionIssued, UserID: user.ID, At: time.Now().UTC()})

	return pair, nil
}

// checkPassword сравнивает пароль с хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// dispatch доставляет доменное событие, если диспетчер сконфигурирован.
func (s *Service) dispatch(ctx context.Context, e events.Event) {
	if s.events != nil {
		s.events.Dispatch(ctx, e)
	}
}
