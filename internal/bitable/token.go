package bitable

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/haoyun/navtable/internal/logger"
)

// tokenKeyPrefix is the redis key prefix for cached tenant tokens.
const tokenKeyPrefix = "navtable:token:"

// FetchFunc obtains a fresh tenant token for a credential scope.
type FetchFunc func(ctx context.Context, creds Credentials) (Token, error)

// TokenCache caches tenant tokens per credential scope. The in-process
// map is the first layer; redis is the shared layer so the token
// survives restarts and is reused across replicas. Refresh happens
// lazily inside the buffer window before expiry; concurrent refreshes
// are harmless (last writer wins, tokens are equivalent).
type TokenCache struct {
	rdb    *redis.Client
	fetch  FetchFunc
	buffer time.Duration
	logger logger.Logger

	mu    sync.RWMutex
	local map[string]Token

	now func() time.Time
}

// NewTokenCache builds the shared token cache. buffer is how long
// before expiry a token is already considered stale.
func NewTokenCache(rdb *redis.Client, fetch FetchFunc, buffer time.Duration, log logger.Logger) *TokenCache {
	return &TokenCache{
		rdb:    rdb,
		fetch:  fetch,
		buffer: buffer,
		logger: log,
		local:  make(map[string]Token),
		now:    time.Now,
	}
}

func tokenKey(appID string) string { return tokenKeyPrefix + appID }

// Token returns a usable tenant token for creds, refreshing lazily.
func (c *TokenCache) Token(ctx context.Context, creds Credentials) (string, error) {
	now := c.now()

	c.mu.RLock()
	tok, ok := c.local[creds.AppID]
	c.mu.RUnlock()
	if ok && c.fresh(tok, now) {
		return tok.Value, nil
	}

	if tok, ok := c.fromRedis(ctx, creds.AppID); ok && c.fresh(tok, now) {
		c.store(creds.AppID, tok)
		return tok.Value, nil
	}

	tok, err := c.fetch(ctx, creds)
	if err != nil {
		return "", err
	}

	c.store(creds.AppID, tok)
	c.toRedis(ctx, creds.AppID, tok)
	return tok.Value, nil
}

// Forget drops the cached token for creds so the next call refetches.
func (c *TokenCache) Forget(ctx context.Context, creds Credentials) {
	c.mu.Lock()
	delete(c.local, creds.AppID)
	c.mu.Unlock()

	if err := c.rdb.Del(ctx, tokenKey(creds.AppID)).Err(); err != nil {
		c.logger.Debug("failed to drop cached token from redis",
			logger.String("app_id", creds.AppID),
			logger.Error(err))
	}
}

func (c *TokenCache) fresh(tok Token, now time.Time) bool {
	return tok.Value != "" && now.Before(tok.ExpiresAt.Add(-c.buffer))
}

func (c *TokenCache) store(appID string, tok Token) {
	c.mu.Lock()
	c.local[appID] = tok
	c.mu.Unlock()
}

func (c *TokenCache) fromRedis(ctx context.Context, appID string) (Token, bool) {
	data, err := c.rdb.Get(ctx, tokenKey(appID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("failed to read cached token from redis", logger.Error(err))
		}
		return Token{}, false
	}
	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		c.logger.Debug("cached token is undecodable, ignoring", logger.Error(err))
		return Token{}, false
	}
	return tok, true
}

func (c *TokenCache) toRedis(ctx context.Context, appID string, tok Token) {
	ttl := time.Until(tok.ExpiresAt)
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, tokenKey(appID), data, ttl).Err(); err != nil {
		// Redis being down only costs extra token fetches.
		c.logger.Debug("failed to cache token in redis", logger.Error(err))
	}
}
