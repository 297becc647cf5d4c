package tokens

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-realty-platform/auth-service/internal/config"
	"github.com/pribylovaa/go-realty-platform/auth-service/internal/models"
)

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:       "unit-secret",
		Algorithm:       "HS256",
		AccessTokenTTL:  2 * time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}
}

func newCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(testCfg())
	require.NoError(t, err)
	return c
}

func TestNewCodec_UnsupportedAlgorithm(t *testing.T) {
	t.Parallel()

	for _, alg := range []string{"RS256", "ES256", "none", "HS999", ""} {
		cfg := testCfg()
		cfg.Algorithm = alg

		_, err := NewCodec(cfg)
		require.Error(t, err, "alg %q", alg)
		require.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	}
}

func TestNewCodec_HMACFamily_OK(t *testing.T) {
	t.Parallel()

	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		cfg := testCfg()
		cfg.Algorithm = alg

		_, err := NewCodec(cfg)
		require.NoError(t, err, "alg %q", alg)
	}
}

func TestIssueDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	c := newCodec(t)
	userID := uuid.New()
	jti := uuid.New()
	now := time.Now().UTC()

	signed, issued, err := c.Issue(models.TokenTypeAccess, userID, models.RoleSearcher, jti, now)
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	require.WithinDuration(t, now.Add(2*time.Hour), issued.ExpiresAt.Time, time.Second)

	claims, err := c.Decode(signed, models.TokenTypeAccess)
	require.NoError(t, err)
	require.Equal(t, string(models.TokenTypeAccess), claims.TokenType)
	require.Equal(t, userID.String(), claims.UserUUID)
	require.Equal(t, string(models.RoleSearcher), claims.Role)
	require.Equal(t, jti.String(), claims.ID)

	gotJTI, err := claims.JTI()
	require.NoError(t, err)
	require.Equal(t, jti, gotJTI)

	gotSubject, err := claims.Subject()
	require.NoError(t, err)
	require.Equal(t, userID, gotSubject)
}

// Форма payload зафиксирована контрактом API:
// ровно {token_type, exp, iat, jti, user_uuid, role}.
func TestIssue_PayloadShape(t *testing.T) {
	t.Parallel()

	c := newCodec(t)

	signed, _, err := c.Issue(models.TokenTypeRefresh, uuid.New(), models.RoleRealtor, uuid.New(), time.Now().UTC())
	require.NoError(t, err)

	parts := strings.Split(signed, ".")
	require.Len(t, parts, 3)

	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))

	require.Len(t, payload, 6)
	for _, key := range []string{"token_type", "exp", "iat", "jti", "user_uuid", "role"} {
		require.Contains(t, payload, key)
	}
}

func TestDecode_WrongSecret(t *testing.T) {
	t.Parallel()

	c := newCodec(t)

	signed, _, err := c.Issue(models.TokenTypeAccess, uuid.New(), models.RoleSearcher, uuid.New(), time.Now().UTC())
	require.NoError(t, err)

	cfg := testCfg()
	cfg.JWTSecret = "other-secret"
	other, err := NewCodec(cfg)
	require.NoError(t, err)

	_, err = other.Decode(signed, models.TokenTypeAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_WrongTokenType(t *testing.T) {
	t.Parallel()

	c := newCodec(t)

	signed, _, err := c.Issue(models.TokenTypeRefresh, uuid.New(), models.RoleSearcher, uuid.New(), time.Now().UTC())
	require.NoError(t, err)

	_, err = c.Decode(signed, models.TokenTypeAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_Garbage(t *testing.T) {
	t.Parallel()

	c := newCodec(t)

	_, err := c.Decode("not.a.jwt", models.TokenTypeAccess)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = c.Decode("", models.TokenTypeAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_Expired(t *testing.T) {
	t.Parallel()

	c := newCodec(t)
	now := time.Now().UTC()

	// exp в прошлом, за пределами leeway.
	claims := &Claims{
		TokenType: string(models.TokenTypeAccess),
		UserUUID:  uuid.New().String(),
		Role:      string(models.RoleSearcher),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
			ID:        uuid.New().String(),
		},
	}

	signed, err := c.Encode(claims)
	require.NoError(t, err)

	_, err = c.Decode(signed, models.TokenTypeAccess)
	require.ErrorIs(t, err, ErrTokenExpired)

	// DecodeExpired достаёт payload из истёкшего токена.
	got, err := c.DecodeExpired(signed, models.TokenTypeAccess)
	require.NoError(t, err)
	require.Equal(t, claims.UserUUID, got.UserUUID)
	require.Equal(t, claims.ID, got.ID)
}

func TestDecodeExpired_StillVerifiesSignature(t *testing.T) {
	t.Parallel()

	c := newCodec(t)

	signed, _, err := c.Issue(models.TokenTypeAccess, uuid.New(), models.RoleSearcher, uuid.New(), time.Now().UTC())
	require.NoError(t, err)

	// Искажение подписи.
	tampered := signed[:len(signed)-2] + "xx"

	_, err = c.DecodeExpired(tampered, models.TokenTypeAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_RejectsForeignAlgorithm(t *testing.T) {
	t.Parallel()

	c := newCodec(t)

	// Токен, подписанный HS512 тем же секретом: кодек с HS256 его отклоняет.
	cfg := testCfg()
	cfg.Algorithm = "HS512"
	hs512, err := NewCodec(cfg)
	require.NoError(t, err)

	signed, _, err := hs512.Issue(models.TokenTypeAccess, uuid.New(), models.RoleSearcher, uuid.New(), time.Now().UTC())
	require.NoError(t, err)

	_, err = c.Decode(signed, models.TokenTypeAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_BadJTIOrSubject(t *testing.T) {
	t.Parallel()

	c := newCodec(t)
	now := time.Now().UTC()

	claims := &Claims{
		TokenType: string(models.TokenTypeAccess),
		UserUUID:  "not-a-uuid",
		Role:      string(models.RoleSearcher),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}

	signed, err := c.Encode(claims)
	require.NoError(t, err)

	_, err = c.Decode(signed, models.TokenTypeAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}
