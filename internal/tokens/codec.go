// tokens реализует кодек подписанных токенов: выпуск и разбор JWT
// с фиксированной формой payload {token_type, exp, iat, jti, user_uuid, role}.
//
// Пакет не выполняет I/O и ничего не знает о хранилище: случайный jti и
// момент выпуска подаются вызывающей стороной, поэтому Encode детерминирован
// относительно своих аргументов. Проверка blacklist/checklist — зона
// ответственности сервисного слоя.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/go-realty-platform/auth-service/internal/config"
	"github.com/pribylovaa/go-realty-platform/auth-service/internal/models"
)

var (
	// ErrUnsupportedAlgorithm — алгоритм подписи вне семейства HMAC.
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

	// ErrInvalidToken — токен не разбирается: битая структура, неверная
	// подпись, чужой алгоритм или несовпадающий token_type.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — подпись корректна, но срок действия истёк.
	ErrTokenExpired = errors.New("token expired")
)

// Claims — payload токена. Форма JSON фиксирована контрактом API:
// {token_type, exp, iat, jti, user_uuid, role}; exp/iat/jti несёт
// jwt.RegisteredClaims (jti — в поле ID).
type Claims struct {
	TokenType string `json:"token_type"`
	UserUUID  string `json:"user_uuid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// JTI возвращает jti как uuid.
func (c *Claims) JTI() (uuid.UUID, error) {
	return uuid.Parse(c.ID)
}

// Subject возвращает user_uuid как uuid.
func (c *Claims) Subject() (uuid.UUID, error) {
	return uuid.Parse(c.UserUUID)
}

// Codec выпускает и разбирает подписанные токены.
// Экземпляр иммутабелен и безопасен для конкурентного использования.
type Codec struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCodec создаёт кодек из конфигурации.
// Поддержано только HMAC-семейство (HS256/HS384/HS512); иное имя
// алгоритма — ErrUnsupportedAlgorithm на старте, а не в первом запросе.
func NewCodec(cfg config.AuthConfig) (*Codec, error) {
	const op = "tokens.codec.NewCodec"

	method := jwt.GetSigningMethod(cfg.Algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok || method == nil {
		return nil, fmt.Errorf("%s: %q: %w", op, cfg.Algorithm, ErrUnsupportedAlgorithm)
	}

	return &Codec{
		secret:     []byte(cfg.JWTSecret),
		method:     method,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

// TTL возвращает время жизни токена данного типа.
func (c *Codec) TTL(tt models.TokenType) time.Duration {
	if tt == models.TokenTypeRefresh {
		return c.refreshTTL
	}

	return c.accessTTL
}

// Issue формирует claims для нового токена и подписывает их.
// jti и now подаются вызывающим: кодек остаётся чистой функцией своих
// аргументов, а сервисный слой сохраняет jti в checklist.
func (c *Codec) Issue(tt models.TokenType, userID uuid.UUID, role models.Role, jti uuid.UUID, now time.Time) (string, *Claims, error) {
	const op = "tokens.codec.Issue"

	claims := &Claims{
		TokenType: string(tt),
		UserUUID:  userID.String(),
		Role:      string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(c.TTL(tt))),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti.String(),
		},
	}

	signed, err := c.Encode(claims)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	return signed, claims, nil
}

// Encode подписывает готовые claims.
func (c *Codec) Encode(claims *Claims) (string, error) {
	const op = "tokens.codec.Encode"

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Decode разбирает и валидирует токен: подпись, exp (с небольшим leeway)
// и совпадение token_type с ожидаемым.
func (c *Codec) Decode(signed string, want models.TokenType) (*Claims, error) {
	const op = "tokens.codec.Decode"

	return c.decode(op, signed, want, false)
}

// DecodeExpired разбирает токен с проверкой подписи, но без валидации
// claims. Используется только для извлечения payload из уже истёкшего
// access-токена при ротации и выходе из системы.
func (c *Codec) DecodeExpired(signed string, want models.TokenType) (*Claims, error) {
	const op = "tokens.codec.DecodeExpired"

	return c.decode(op, signed, want, true)
}

func (c *Codec) decode(op, signed string, want models.TokenType, skipValidation bool) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithLeeway(5 * time.Second),
	}
	if skipValidation {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	token, err := jwt.ParseWithClaims(signed, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return c.secret, nil
		},
		opts...,
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if claims.TokenType != string(want) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if _, err := claims.JTI(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if _, err := claims.Subject(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims, nil
}
