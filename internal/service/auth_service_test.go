package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinwuui/celeb-library-api-sub000/internal/auth"
	"github.com/jinwuui/celeb-library-api-sub000/internal/config"
	"github.com/jinwuui/celeb-library-api-sub000/internal/domain"
	"github.com/jinwuui/celeb-library-api-sub000/internal/events"
	"github.com/jinwuui/celeb-library-api-sub000/internal/repository"
)

type fakeUserRepo struct {
	users       map[string]*domain.User
	nextID      int64
	createCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User), nextID: 1}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.createCalls++
	if _, ok := r.users[user.Username]; ok {
		return repository.ErrDuplicateUsername
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	r.users[user.Username] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	user, ok := r.users[username]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := r.users[username]
	return ok, nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (fakeHasher) Verify(plain, hashed string) bool { return hashed == "hashed:"+plain }

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:              "test-secret",
		AccessTokenTTLMinutes:  30,
		RefreshTokenTTLMinutes: 60 * 24,
	}
}

func newTestService(t *testing.T, repo *fakeUserRepo) (*AuthService, auth.SessionCache) {
	t.Helper()
	cache := auth.NewMemorySessionCache()
	t.Cleanup(cache.Close)

	svc := NewAuthService(testAuthConfig(), AuthDependencies{
		UserRepo:   repo,
		Hasher:     fakeHasher{},
		Cache:      cache,
		Dispatcher: events.NewInMemoryDispatcher(),
	})
	return svc, cache
}

func seedMember(t *testing.T, repo *fakeUserRepo, username, password string) *domain.User {
	t.Helper()
	user := &domain.User{
		Username:     username,
		PasswordHash: "hashed:" + password,
		Kind:         domain.UserKindMember,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	repo.createCalls = 0
	return user
}

func TestAuthService_Authenticate(t *testing.T) {
	repo := newFakeUserRepo()
	seedMember(t, repo, "alice", "secret")
	svc, cache := newTestService(t, repo)
	ctx := context.Background()

	pair, err := svc.Authenticate(ctx, "alice", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	accessClaims, err := svc.TokenCodec().Verify(pair.AccessToken, auth.TokenKindAccess)
	require.NoError(t, err)
	refreshClaims, err := svc.TokenCodec().Verify(pair.RefreshToken, auth.TokenKindRefresh)
	require.NoError(t, err)
	assert.Equal(t, "alice", accessClaims.Subject)
	assert.Equal(t, accessClaims.Subject, refreshClaims.Subject)

	snap, err := cache.Resolve(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", snap.Username)
	assert.Equal(t, domain.UserKindMember, snap.Kind)
}

func TestAuthService_Authenticate_IndistinguishableFailures(t *testing.T) {
	repo := newFakeUserRepo()
	seedMember(t, repo, "alice", "secret")
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	_, wrongPassErr := svc.Authenticate(ctx, "alice", "wrong")
	_, unknownUserErr := svc.Authenticate(ctx, "nobody", "secret")

	assert.ErrorIs(t, wrongPassErr, auth.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUserErr, auth.ErrInvalidCredentials)
	// Identical errors, so responses cannot reveal which part was wrong.
	assert.Equal(t, wrongPassErr.Error(), unknownUserErr.Error())
}

func TestAuthService_RegisterGuest(t *testing.T) {
	repo := newFakeUserRepo()
	svc, cache := newTestService(t, repo)
	ctx := context.Background()

	pair, err := svc.RegisterGuest(ctx, "visitor", "pw")
	require.NoError(t, err)

	created, err := repo.GetByUsername(ctx, "visitor")
	require.NoError(t, err)
	assert.Equal(t, domain.UserKindGuest, created.Kind)
	assert.Equal(t, "hashed:pw", created.PasswordHash)

	snap, err := cache.Resolve(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.UserKindGuest, snap.Kind)
}

func TestAuthService_RegisterGuest_UsernameTaken(t *testing.T) {
	repo := newFakeUserRepo()
	seedMember(t, repo, "alice", "secret")
	svc, _ := newTestService(t, repo)

	_, err := svc.RegisterGuest(context.Background(), "alice", "pw")
	assert.ErrorIs(t, err, auth.ErrUsernameTaken)
	// No record was created for the duplicate.
	assert.Zero(t, repo.createCalls)
}

func TestAuthService_RenewAccessToken_Rotation(t *testing.T) {
	repo := newFakeUserRepo()
	seedMember(t, repo, "alice", "secret")
	svc, cache := newTestService(t, repo)
	ctx := context.Background()

	pair, err := svc.Authenticate(ctx, "alice", "secret")
	require.NoError(t, err)

	first, err := svc.RenewAccessToken(ctx, pair.RefreshToken)
	require.NoError(t, err)

	// The original access token was rotated away; the first renewal
	// resolves.
	_, err = cache.Resolve(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	_, err = cache.Resolve(ctx, first)
	require.NoError(t, err)

	second, err := svc.RenewAccessToken(ctx, pair.RefreshToken)
	require.NoError(t, err)

	_, err = cache.Resolve(ctx, first)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	snap, err := cache.Resolve(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "alice", snap.Username)

	current, err := cache.CurrentAccessToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, second, current)
}

func TestAuthService_RenewAccessToken_RejectsAccessKind(t *testing.T) {
	repo := newFakeUserRepo()
	seedMember(t, repo, "alice", "secret")
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	pair, err := svc.Authenticate(ctx, "alice", "secret")
	require.NoError(t, err)

	_, err = svc.RenewAccessToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrTokenKindMismatch)
}

func TestAuthService_RenewAccessToken_ForeignSignature(t *testing.T) {
	repo := newFakeUserRepo()
	seedMember(t, repo, "alice", "secret")
	svc, cache := newTestService(t, repo)
	ctx := context.Background()

	pair, err := svc.Authenticate(ctx, "alice", "secret")
	require.NoError(t, err)

	forged, err := auth.NewTokenCodec("other-secret").Issue("alice", auth.TokenKindRefresh, time.Hour)
	require.NoError(t, err)

	_, err = svc.RenewAccessToken(ctx, forged)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)

	// The cache is untouched by the failed renewal.
	_, err = cache.Resolve(ctx, pair.AccessToken)
	require.NoError(t, err)
	current, err := cache.CurrentAccessToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, pair.AccessToken, current)
}

func TestAuthService_RenewAccessToken_CacheMissReinstalls(t *testing.T) {
	repo := newFakeUserRepo()
	seedMember(t, repo, "alice", "secret")
	svc, cache := newTestService(t, repo)
	ctx := context.Background()

	// A valid refresh token with no cache entry, e.g. after a restart.
	refresh, err := svc.TokenCodec().Issue("alice", auth.TokenKindRefresh, time.Hour)
	require.NoError(t, err)

	access, err := svc.RenewAccessToken(ctx, refresh)
	require.NoError(t, err)

	snap, err := cache.Resolve(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, "alice", snap.Username)
}

func TestAuthService_RenewAccessToken_AccountGone(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestService(t, repo)

	refresh, err := svc.TokenCodec().Issue("ghost", auth.TokenKindRefresh, time.Hour)
	require.NoError(t, err)

	_, err = svc.RenewAccessToken(context.Background(), refresh)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthService_Logout(t *testing.T) {
	repo := newFakeUserRepo()
	seedMember(t, repo, "alice", "secret")
	svc, cache := newTestService(t, repo)
	ctx := context.Background()

	pair, err := svc.Authenticate(ctx, "alice", "secret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))

	_, err = cache.Resolve(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	_, err = cache.CurrentAccessToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)

	// Logging out twice is harmless.
	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))
}

func TestAuthService_Logout_RejectsAccessKind(t *testing.T) {
	repo := newFakeUserRepo()
	seedMember(t, repo, "alice", "secret")
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	pair, err := svc.Authenticate(ctx, "alice", "secret")
	require.NoError(t, err)

	err = svc.Logout(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrTokenKindMismatch)
}
