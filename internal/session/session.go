// Package session keeps admin sessions in redis so they survive
// restarts and are shared across replicas.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CookieName is the session cookie set on login.
const CookieName = "navtable_session"

const keyPrefix = "navtable:session:"

// Store manages opaque admin session ids with a fixed TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore builds the session store. ttl is the session lifetime.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func key(id string) string { return keyPrefix + id }

// Create opens a new session and returns its id.
func (s *Store) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	loginTime := time.Now().UTC().Format(time.RFC3339)
	if err := s.rdb.Set(ctx, key(id), loginTime, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// Valid reports whether the session id is known and unexpired.
func (s *Store) Valid(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	if err := s.rdb.Get(ctx, key(id)).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return true, nil
}

// Destroy ends a session. Destroying an unknown id is a no-op.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.rdb.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}
