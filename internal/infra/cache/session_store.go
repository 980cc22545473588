package cache

import (
	"context"
	"time"

	"gatehouse/internal/domain/repository"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// sessionKeyPrefix namespaces session entries within the shared Redis keyspace.
const sessionKeyPrefix = "session:"

// sessionStore implements repository.SessionStore on top of Redis.
// Expiration is handled entirely by Redis through the per-key TTL; there is
// no explicit deletion path.
type sessionStore struct {
	client *redis.Client
}

// NewSessionStore is the constructor for sessionStore.
func NewSessionStore(client *redis.Client) repository.SessionStore {
	return &sessionStore{client: client}
}

// Set writes payload under key with the given TTL, overwriting any existing entry.
func (s *sessionStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKeyPrefix+key, payload, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to write session entry")
	}

	return nil
}

// Get returns the payload stored under key. redis.Nil means the key is
// absent or expired, which maps to the domain's miss sentinel.
func (s *sessionStore) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrSessionNotFound
		}

		return nil, errors.Wrap(err, "failed to read session entry")
	}

	return payload, nil
}
