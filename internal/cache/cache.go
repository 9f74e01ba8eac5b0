package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RefreshCache — минимальный контракт кэша текущих refresh-токенов.
// Кэш хранит по идентификатору пользователя хэш последнего выданного
// refresh-токена и позволяет проверить ротацию без похода в БД.
type RefreshCache interface {
	// CurrentHash возвращает хэш и признак его наличия в кэше.
	CurrentHash(ctx context.Context, userID uuid.UUID) (string, bool, error)
	// SetCurrentHash сохраняет хэш с TTL (обычно TTL refresh-токена).
	SetCurrentHash(ctx context.Context, userID uuid.UUID, hash string, ttl time.Duration) error
	// Drop удаляет запись пользователя (logout).
	Drop(ctx context.Context, userID uuid.UUID) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "account:rt:".
func NewRedisCache(redisURL, prefix string) (RefreshCache, error) {
	if prefix == "" {
		prefix = "account:rt:"
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

func (c *redisCache) key(userID uuid.UUID) string { return c.prefix + userID.String() }

func (c *redisCache) CurrentHash(ctx context.Context, userID uuid.UUID) (string, bool, error) {
	hash, err := c.rdb.Get(ctx, c.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}

		return "", false, err
	}

	return hash, true, nil
}

func (c *redisCache) SetCurrentHash(ctx context.Context, userID uuid.UUID, hash string, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.key(userID), hash, ttl).Err()
}

func (c *redisCache) Drop(ctx context.Context, userID uuid.UUID) error {
	return c.rdb.Del(ctx, c.key(userID)).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }
