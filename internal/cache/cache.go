package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RevocationCache — минимальный контракт кэша отозванных токенов.
// Кэш хранит только положительные ответы blacklist: отсутствие ключа
// не означает, что токен не отозван, и требует похода в БД.
type RevocationCache interface {
	// Revoked возвращает признак отзыва и признак наличия ключа в кэше.
	Revoked(ctx context.Context, jti uuid.UUID) (bool, bool, error)
	// MarkRevoked помечает jti отозванным с TTL (обычно ExpiresAt-now).
	MarkRevoked(ctx context.Context, jti uuid.UUID, ttl time.Duration) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "auth:bl:".
func NewRedisCache(redisURL, prefix string) (RevocationCache, error) {
	if prefix == "" {
		prefix = "auth:bl:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(jti uuid.UUID) string { return c.prefix + jti.String() }

func (c *redisCache) Revoked(ctx context.Context, jti uuid.UUID) (bool, bool, error) {
	v, err := c.rdb.Get(ctx, c.key(jti)).Result()
	if err != nil {
		if err == redis.Nil {
			return false, false, nil
		}

		return false, false, err
	}

	return v == "1", true, nil
}

func (c *redisCache) MarkRevoked(ctx context.Context, jti uuid.UUID, ttl time.Duration) error {
	if ttl <= 0 {
		// Токен уже истёк: blacklist-отметка не нужна, exp отсечёт его сам.
		return nil
	}

	return c.rdb.Set(ctx, c.key(jti), "1", ttl).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }
