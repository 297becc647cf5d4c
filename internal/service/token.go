package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-realty-platform/auth-service/internal/events"
	"github.com/pribylovaa/go-realty-platform/auth-service/internal/models"
	logctx "github.com/pribylovaa/go-realty-platform/auth-service/internal/pkg/log"
	"github.com/pribylovaa/go-realty-platform/auth-service/internal/pkg/redact"
	"github.com/pribylovaa/go-realty-platform/auth-service/internal/storage"
	"github.com/pribylovaa/go-realty-platform/auth-service/internal/tokens"
)

// Refresh выполняет ротацию: обменивает предъявленную пару на новую,
// атомарно отзывая старую.
//
// Access-токен разбирается без проверки exp — при легитимной ротации он
// уже истёк; refresh-токен проверяется полностью. Старая и новая пара
// меняются местами в одной транзакции: конкурентная ротация той же пары
// упрётся в уникальность blacklist-записи и получит ErrStaleToken.
//
// Отказы:
//   - ErrInvalidToken/ErrTokenExpired — криптографическая/структурная проверка;
//   - ErrUserNotFound — пользователь из payload исчез или деактивирован;
//   - ErrTokenNotFound — checklist не содержит живой пары;
//   - ErrStaleToken — предъявлена вытесненная пара.
func (s *Service) Refresh(ctx context.Context, accessToken, refreshToken string) (*models.TokenPair, error) {
	const op = "service.token.Refresh"

	accessClaims, err := s.codec.DecodeExpired(accessToken, models.TokenTypeAccess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	refreshClaims, err := s.codec.Decode(refreshToken, models.TokenTypeRefresh)
	if err != nil {
		if errors.Is(err, tokens.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if accessClaims.UserUUID != refreshClaims.UserUUID {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	userID, err := accessClaims.Subject()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	user, err := s.storage.ActiveUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	accessJTI, _ := accessClaims.JTI()
	refreshJTI, _ := refreshClaims.JTI()

	var (
		pair       *models.TokenPair
		oldRecords []models.TokenRecord
	)

	err = s.storage.WithinTx(ctx, func(st storage.Storage) error {
		latest, err := s.verifyIsLatest(ctx, st, user.ID, accessJTI, refreshJTI)
		if err != nil {
			return err
		}

		// В blacklist уходит вся старая пара, включая истёкший access:
		// отозванность записи не зависит от её срока жизни.
		for _, rec := range latest {
			if err := st.AddToBlacklist(ctx, rec.ID); err != nil {
				if errors.Is(err, storage.ErrAlreadyExists) {
					// Конкурентная ротация успела первой.
					return ErrStaleToken
				}

				return err
			}

			tokensRevokedTotal.Inc()
		}

		p, err := s.issuePair(ctx, st, user)
		if err != nil {
			return err
		}

		pair = p
		oldRecords = latest

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cacheRevoked(ctx, oldRecords)
	s.dispatch(ctx, events.Event{Type: events.SessionRotated, UserID: user.ID, At: time.Now().UTC()})

	return pair, nil
}

// Logout отзывает access-токен сессии.
//
// Повторный вызов с уже отозванным токеном — успех без ошибки: выход из
// системы обязан быть идемпотентным. Отзыв access-записи рвёт пару —
// checklist пользователя перестаёт содержать две живые записи, и refresh
// становится бесполезен без отдельной blacklist-отметки.
//
// Отказы:
//   - ErrInvalidToken — токен не разбирается;
//   - ErrTokenNotFound — запись не выпускалась этим сервисом или уже
//     удалена sweeper'ом.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	const op = "service.token.Logout"

	claims, err := s.codec.DecodeExpired(accessToken, models.TokenTypeAccess)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	jti, _ := claims.JTI()

	rec, err := s.storage.TokenByJTI(ctx, jti)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logctx.From(ctx).Info("logout_unknown_token",
				slog.String("op", op),
				slog.String("token", redact.Token(accessToken)),
			)

			return fmt.Errorf("%s: %w", op, ErrTokenNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.AddToBlacklist(ctx, rec.ID); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			// Токен уже в blacklist — logout идемпотентен.
			return nil
		}

		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrTokenNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	tokensRevokedTotal.Inc()
	s.cacheRevoked(ctx, []models.TokenRecord{*rec})

	if userID, err := claims.Subject(); err == nil {
		s.dispatch(ctx, events.Event{Type: events.SessionRevoked, UserID: userID, At: time.Now().UTC()})
	}

	return nil
}

// IsRevoked сообщает, находится ли jti в blacklist.
// Сначала опрашивается кэш (в нём достоверны только положительные ответы),
// затем — хранилище.
func (s *Service) IsRevoked(ctx context.Context, jti uuid.UUID) (bool, error) {
	const op = "service.token.IsRevoked"

	if s.rcache != nil {
		revoked, ok, err := s.rcache.Revoked(ctx, jti)
		if err != nil {
			logctx.From(ctx).Warn("revocation_cache_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		} else if ok && revoked {
			return true, nil
		}
	}

	blacklisted, err := s.storage.IsBlacklisted(ctx, jti)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return blacklisted, nil
}

// ValidateAccess проверяет access-токен: подпись, срок и blacklist.
// Возвращает claims для авторизации по роли без похода в БД пользователей.
func (s *Service) ValidateAccess(ctx context.Context, accessToken string) (*tokens.Claims, error) {
	const op = "service.token.ValidateAccess"

	claims, err := s.codec.Decode(accessToken, models.TokenTypeAccess)
	if err != nil {
		if errors.Is(err, tokens.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	jti, _ := claims.JTI()

	revoked, err := s.IsRevoked(ctx, jti)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if revoked {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
	}

	return claims, nil
}

// verifyIsLatest сверяет предъявленные jti с последней парой пользователя.
// Checklist упорядочен от новых к старым, последняя пара — первые две
// живые записи. Меньше двух живых записей — сессия уже завершена или
// вытеснена в другом месте.
func (s *Service) verifyIsLatest(ctx context.Context, st storage.Storage, userID uuid.UUID, jtis ...uuid.UUID) ([]models.TokenRecord, error) {
	checklist, err := st.ActiveTokensByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(checklist) < 2 {
		return nil, ErrTokenNotFound
	}

	latest := checklist[:2]
	set := map[uuid.UUID]struct{}{
		latest[0].JTI: {},
		latest[1].JTI: {},
	}

	for _, jti := range jtis {
		if _, ok := set[jti]; !ok {
			return nil, ErrStaleToken
		}
	}

	return latest, nil
}

// maxJTIAttempts — попытки пересоздать jti при коллизии уникальности.
const maxJTIAttempts = 3

// issuePair выпускает и сохраняет новую пару access+refresh через
// переданный Storage (пул или открытая транзакция при ротации).
func (s *Service) issuePair(ctx context.Context, st storage.Storage, user *models.User) (*models.TokenPair, error) {
	now := time.Now().UTC()

	access, err := s.issueToken(ctx, st, user, models.TokenTypeAccess, now)
	if err != nil {
		return nil, err
	}

	refresh, err := s.issueToken(ctx, st, user, models.TokenTypeRefresh, now)
	if err != nil {
		return nil, err
	}

	tokensIssuedTotal.Add(2)

	return &models.TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}, nil
}

// issueToken выпускает один токен: свежий jti, подпись, запись в checklist.
func (s *Service) issueToken(ctx context.Context, st storage.Storage, user *models.User, tt models.TokenType, now time.Time) (string, error) {
	const op = "service.token.issueToken"

	lg := logctx.From(ctx)

	for attempt := 0; attempt < maxJTIAttempts; attempt++ {
		jti := uuid.New()

		signed, claims, err := s.codec.Issue(tt, user.ID, user.Role, jti, now)
		if err != nil {
			lg.Error("token_sign_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}

		rec := &models.TokenRecord{
			UserID:      uuid.NullUUID{UUID: user.ID, Valid: true},
			JTI:         jti,
			TokenType:   tt,
			SignedValue: signed,
			IssuedAt:    now,
			ExpiresAt:   claims.ExpiresAt.Time,
		}

		if err := st.SaveToken(ctx, rec); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				// Коллизия uuid — практически невозможна, но пробуем заново.
				continue
			}

			lg.Error("save_token_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}

		return signed, nil
	}

	lg.Error("jti_collision_exceeded", slog.String("op", op))

	return "", fmt.Errorf("%s: %w", op, ErrJTICollision)
}

// cacheRevoked — best-effort отметка отозванных jti в кэше.
// Ошибка кэша не влияет на исход операции: источник истины — БД.
func (s *Service) cacheRevoked(ctx context.Context, recs []models.TokenRecord) {
	if s.rcache == nil {
		return
	}

	now := time.Now().UTC()
	for _, rec := range recs {
		if err := s.rcache.MarkRevoked(ctx, rec.JTI, rec.ExpiresAt.Sub(now)); err != nil {
			logctx.From(ctx).Warn("revocation_cache_mark_failed",
				slog.String("jti", rec.JTI.String()),
				slog.String("err", err.Error()),
			)
		}
	}
}
