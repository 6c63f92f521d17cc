package auth

import (
	"context"
	"time"

	"placement-portal/pkg/errors"

	"github.com/go-redis/redis/v8"
)

// SessionStore maps login tokens to user emails.
type SessionStore interface {
	Create(ctx context.Context, token, email string, ttl time.Duration) error
	// Lookup returns ErrUnauthenticated for unknown or expired tokens and
	// extends the session by ttl otherwise.
	Lookup(ctx context.Context, token string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, token string) error
}

type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

var _ SessionStore = (*RedisSessionStore)(nil)

func NewRedisSessionStore(client *redis.Client, prefix string) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: prefix}
}

func (s *RedisSessionStore) Create(ctx context.Context, token, email string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+token, email, ttl).Err()
}

func (s *RedisSessionStore) Lookup(ctx context.Context, token string, ttl time.Duration) (string, error) {
	key := s.prefix + token

	email, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", errors.ErrUnauthenticated
	}
	if err != nil {
		return "", err
	}

	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		return "", err
	}
	return email, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.prefix+token).Err()
}
