package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	accessKeyPrefix  = "auth:access:"
	refreshKeyPrefix = "auth:refresh:"
)

// RedisSessionCache is the shared SessionCache for multi-process
// deployments. Snapshots are stored as JSON under the access token with a
// TTL matching the token expiry; rotation runs in a MULTI transaction so
// readers never observe a half-applied move.
type RedisSessionCache struct {
	client     redis.UniversalClient
	refreshTTL time.Duration
}

// NewRedisSessionCache builds the cache. refreshTTL bounds how long the
// refresh-token pointer survives.
func NewRedisSessionCache(client redis.UniversalClient, refreshTTL time.Duration) *RedisSessionCache {
	return &RedisSessionCache{client: client, refreshTTL: refreshTTL}
}

func (c *RedisSessionCache) Put(ctx context.Context, accessToken, refreshToken string, snap IdentitySnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	accessTTL := time.Until(snap.ExpiresAt)
	if accessTTL <= 0 {
		return errors.New("snapshot already expired")
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, accessKeyPrefix+accessToken, data, accessTTL)
		pipe.Set(ctx, refreshKeyPrefix+refreshToken, accessToken, c.refreshTTL)
		return nil
	})
	return err
}

func (c *RedisSessionCache) Resolve(ctx context.Context, accessToken string) (IdentitySnapshot, error) {
	data, err := c.client.Get(ctx, accessKeyPrefix+accessToken).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return IdentitySnapshot{}, ErrSessionNotFound
		}
		return IdentitySnapshot{}, fmt.Errorf("redis get: %w", err)
	}

	var snap IdentitySnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return IdentitySnapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	// Redis TTL should have evicted this already; re-check to be safe.
	if time.Now().After(snap.ExpiresAt) {
		_ = c.client.Del(ctx, accessKeyPrefix+accessToken).Err()
		return IdentitySnapshot{}, ErrSessionNotFound
	}
	return snap, nil
}

func (c *RedisSessionCache) CurrentAccessToken(ctx context.Context, refreshToken string) (string, error) {
	accessToken, err := c.client.Get(ctx, refreshKeyPrefix+refreshToken).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return accessToken, nil
}

func (c *RedisSessionCache) Rotate(ctx context.Context, oldAccess, newAccess, refreshToken string, expiresAt time.Time) error {
	data, err := c.client.Get(ctx, accessKeyPrefix+oldAccess).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("redis get: %w", err)
	}

	var snap IdentitySnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return fmt.Errorf("unmarshal snapshot: %w", err)
	}
	snap.ExpiresAt = expiresAt

	updated, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, accessKeyPrefix+oldAccess)
		pipe.Set(ctx, accessKeyPrefix+newAccess, updated, time.Until(expiresAt))
		pipe.Set(ctx, refreshKeyPrefix+refreshToken, newAccess, redis.KeepTTL)
		return nil
	})
	return err
}

func (c *RedisSessionCache) Invalidate(ctx context.Context, refreshToken string) error {
	accessToken, err := c.CurrentAccessToken(ctx, refreshToken)
	if err != nil {
		return err
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, accessKeyPrefix+accessToken)
		pipe.Del(ctx, refreshKeyPrefix+refreshToken)
		return nil
	})
	return err
}
