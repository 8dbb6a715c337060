package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinwuui/celeb-library-api-sub000/internal/domain"
)

func newTestCache(t *testing.T) *MemorySessionCache {
	t.Helper()
	cache := NewMemorySessionCache()
	t.Cleanup(cache.Close)
	return cache
}

func snapshot(username string) IdentitySnapshot {
	return IdentitySnapshot{
		UserID:    1,
		Username:  username,
		Kind:      domain.UserKindMember,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestMemorySessionCache_PutAndResolve(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "access-1", "refresh-1", snapshot("alice")))

	// Repeated reads return the same snapshot; reads have no side effects.
	for i := 0; i < 3; i++ {
		snap, err := cache.Resolve(ctx, "access-1")
		require.NoError(t, err)
		assert.Equal(t, "alice", snap.Username)
		assert.Equal(t, domain.UserKindMember, snap.Kind)
	}

	accessToken, err := cache.CurrentAccessToken(ctx, "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "access-1", accessToken)
}

func TestMemorySessionCache_ResolveUnknown(t *testing.T) {
	cache := newTestCache(t)

	_, err := cache.Resolve(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionCache_ResolveExpired(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	snap := snapshot("alice")
	snap.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, cache.Put(ctx, "access-1", "refresh-1", snap))

	_, err := cache.Resolve(ctx, "access-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionCache_PutLastWriteWins(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "access-1", "refresh-1", snapshot("alice")))
	require.NoError(t, cache.Put(ctx, "access-1", "refresh-1", snapshot("bob")))

	snap, err := cache.Resolve(ctx, "access-1")
	require.NoError(t, err)
	assert.Equal(t, "bob", snap.Username)
}

func TestMemorySessionCache_Rotate(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "access-old", "refresh-1", snapshot("alice")))

	expiresAt := time.Now().Add(time.Hour)
	require.NoError(t, cache.Rotate(ctx, "access-old", "access-new", "refresh-1", expiresAt))

	_, err := cache.Resolve(ctx, "access-old")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	snap, err := cache.Resolve(ctx, "access-new")
	require.NoError(t, err)
	assert.Equal(t, "alice", snap.Username)

	accessToken, err := cache.CurrentAccessToken(ctx, "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "access-new", accessToken)
}

func TestMemorySessionCache_RotateUnknownOldToken(t *testing.T) {
	cache := newTestCache(t)

	err := cache.Rotate(context.Background(), "gone", "access-new", "refresh-1", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionCache_Invalidate(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "access-1", "refresh-1", snapshot("alice")))
	require.NoError(t, cache.Invalidate(ctx, "refresh-1"))

	_, err := cache.Resolve(ctx, "access-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = cache.CurrentAccessToken(ctx, "refresh-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

// Concurrent rotations against concurrent readers must never corrupt the
// cache or surface a half-applied rotation. Run with -race.
func TestMemorySessionCache_ConcurrentRotation(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	const rotations = 200
	require.NoError(t, cache.Put(ctx, "access-0", "refresh-1", snapshot("alice")))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if accessToken, err := cache.CurrentAccessToken(ctx, "refresh-1"); err == nil {
					// The pointer may be rotated away between the two
					// calls; the only hard requirement is that a hit
					// carries the full snapshot.
					if snap, err := cache.Resolve(ctx, accessToken); err == nil {
						assert.Equal(t, "alice", snap.Username)
					}
				}
			}
		}()
	}

	for i := 0; i < rotations; i++ {
		oldToken := fmt.Sprintf("access-%d", i)
		newToken := fmt.Sprintf("access-%d", i+1)
		require.NoError(t, cache.Rotate(ctx, oldToken, newToken, "refresh-1", time.Now().Add(time.Hour)))
	}
	close(stop)
	wg.Wait()

	final := fmt.Sprintf("access-%d", rotations)
	snap, err := cache.Resolve(ctx, final)
	require.NoError(t, err)
	assert.Equal(t, "alice", snap.Username)

	accessToken, err := cache.CurrentAccessToken(ctx, "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, final, accessToken)
}
