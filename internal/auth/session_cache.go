package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jinwuui/celeb-library-api-sub000/internal/domain"
)

// ErrSessionNotFound indicates the token has no live cache entry.
var ErrSessionNotFound = errors.New("session not found")

// IdentitySnapshot is the cached view of a logged-in user, keyed by the
// access token that proved it.
type IdentitySnapshot struct {
	UserID   int64           `json:"user_id"`
	Username string          `json:"username"`
	Kind     domain.UserKind `json:"kind"`
	// ExpiresAt mirrors the access token expiry so stale entries can be
	// dropped without re-parsing the token. The signed token remains the
	// source of truth for validity.
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionCache maps issued access tokens to identity snapshots and refresh
// tokens to their currently valid access token. At most one live access
// token is associated with a refresh token at any time.
type SessionCache interface {
	// Put installs both mappings. Last write wins on repeated calls.
	Put(ctx context.Context, accessToken, refreshToken string, snap IdentitySnapshot) error
	// Resolve returns the snapshot for a live access token.
	Resolve(ctx context.Context, accessToken string) (IdentitySnapshot, error)
	// CurrentAccessToken returns the access token a refresh token points at.
	CurrentAccessToken(ctx context.Context, refreshToken string) (string, error)
	// Rotate atomically moves the snapshot from oldAccess to newAccess and
	// repoints refreshToken at newAccess. Concurrent readers observe either
	// the old state or the new one, never a half-applied rotation.
	Rotate(ctx context.Context, oldAccess, newAccess, refreshToken string, expiresAt time.Time) error
	// Invalidate removes the refresh-token mapping and the access token it
	// currently points to.
	Invalidate(ctx context.Context, refreshToken string) error
}

// MemorySessionCache is the process-local SessionCache. All mutations run
// under one lock so rotation is a single atomic step; reads share an RLock.
type MemorySessionCache struct {
	mu      sync.RWMutex
	access  map[string]IdentitySnapshot
	refresh map[string]string
	stop    chan struct{}
}

// NewMemorySessionCache builds the cache and starts a background sweep for
// expired entries.
func NewMemorySessionCache() *MemorySessionCache {
	c := &MemorySessionCache{
		access:  make(map[string]IdentitySnapshot),
		refresh: make(map[string]string),
		stop:    make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

func (c *MemorySessionCache) Put(_ context.Context, accessToken, refreshToken string, snap IdentitySnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.access[accessToken] = snap
	c.refresh[refreshToken] = accessToken
	return nil
}

func (c *MemorySessionCache) Resolve(_ context.Context, accessToken string) (IdentitySnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.access[accessToken]
	if !ok || time.Now().After(snap.ExpiresAt) {
		return IdentitySnapshot{}, ErrSessionNotFound
	}
	return snap, nil
}

func (c *MemorySessionCache) CurrentAccessToken(_ context.Context, refreshToken string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	accessToken, ok := c.refresh[refreshToken]
	if !ok {
		return "", ErrSessionNotFound
	}
	return accessToken, nil
}

func (c *MemorySessionCache) Rotate(_ context.Context, oldAccess, newAccess, refreshToken string, expiresAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.access[oldAccess]
	if !ok {
		return ErrSessionNotFound
	}
	snap.ExpiresAt = expiresAt
	delete(c.access, oldAccess)
	c.access[newAccess] = snap
	c.refresh[refreshToken] = newAccess
	return nil
}

func (c *MemorySessionCache) Invalidate(_ context.Context, refreshToken string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	accessToken, ok := c.refresh[refreshToken]
	if !ok {
		return ErrSessionNotFound
	}
	delete(c.access, accessToken)
	delete(c.refresh, refreshToken)
	return nil
}

// Close stops the background sweep.
func (c *MemorySessionCache) Close() {
	close(c.stop)
}

func (c *MemorySessionCache) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *MemorySessionCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for token, snap := range c.access {
		if now.After(snap.ExpiresAt) {
			delete(c.access, token)
		}
	}
	for refreshToken, accessToken := range c.refresh {
		if _, ok := c.access[accessToken]; !ok {
			delete(c.refresh, refreshToken)
		}
	}
}
