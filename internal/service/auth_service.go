package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jinwuui/celeb-library-api-sub000/internal/auth"
	"github.com/jinwuui/celeb-library-api-sub000/internal/config"
	"github.com/jinwuui/celeb-library-api-sub000/internal/domain"
	"github.com/jinwuui/celeb-library-api-sub000/internal/events"
	"github.com/jinwuui/celeb-library-api-sub000/internal/repository"
)

// AuthService validates credentials and owns the token lifecycle: issuing
// pairs on login, registering guests, rotating access tokens, and tearing
// sessions down on logout. It implements auth.Authenticator.
type AuthService struct {
	users      repository.UserRepository
	hasher     auth.Hasher
	codec      *auth.TokenCodec
	cache      auth.SessionCache
	dispatcher events.Dispatcher
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// AuthDependencies encapsulates collaborator requirements for the service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Hasher     auth.Hasher
	Cache      auth.SessionCache
	Dispatcher events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		hasher:     deps.Hasher,
		codec:      auth.NewTokenCodec(cfg.JWTSecret),
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		accessTTL:  cfg.AccessTokenTTL(),
		refreshTTL: cfg.RefreshTokenTTL(),
	}
}

// Authenticate checks the credentials and issues a fresh token pair. An
// unknown username and a wrong password are indistinguishable to the
// caller.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (auth.TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.dispatcher.Publish(ctx, events.NewEvent(events.EventLoginFailed, username, nil))
			return auth.TokenPair{}, auth.ErrInvalidCredentials
		}
		return auth.TokenPair{}, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.dispatcher.Publish(ctx, events.NewEvent(events.EventLoginFailed, username, nil))
		return auth.TokenPair{}, auth.ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return auth.TokenPair{}, err
	}
	s.dispatcher.Publish(ctx, events.NewEvent(events.EventLoginSucceeded, username, nil))
	return pair, nil
}

// RegisterGuest creates a guest account and logs it in.
func (s *AuthService) RegisterGuest(ctx context.Context, username, password string) (auth.TokenPair, error) {
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return auth.TokenPair{}, err
	}
	if exists {
		return auth.TokenPair{}, auth.ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return auth.TokenPair{}, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Kind:         domain.UserKindGuest,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return auth.TokenPair{}, auth.ErrUsernameTaken
		}
		return auth.TokenPair{}, err
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return auth.TokenPair{}, err
	}
	s.dispatcher.Publish(ctx, events.NewEvent(events.EventGuestRegistered, username, nil))
	return pair, nil
}

// RenewAccessToken verifies the refresh token and rotates the session cache
// to a freshly issued access token. The refresh token itself is never
// reissued here.
func (s *AuthService) RenewAccessToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.codec.Verify(refreshToken, auth.TokenKindRefresh)
	if err != nil {
		return "", err
	}
	subject := claims.Subject

	newAccess, err := s.codec.Issue(subject, auth.TokenKindAccess, s.accessTTL)
	if err != nil {
		return "", err
	}
	expiresAt := time.Now().Add(s.accessTTL)

	oldAccess, err := s.cache.CurrentAccessToken(ctx, refreshToken)
	switch {
	case err == nil:
		err = s.cache.Rotate(ctx, oldAccess, newAccess, refreshToken, expiresAt)
		if errors.Is(err, auth.ErrSessionNotFound) {
			err = s.reinstall(ctx, subject, newAccess, refreshToken, expiresAt)
		}
	case errors.Is(err, auth.ErrSessionNotFound):
		// The token outlived the cache entry, e.g. across a restart. The
		// signed token is the source of truth, so rebuild the entry.
		err = s.reinstall(ctx, subject, newAccess, refreshToken, expiresAt)
	}
	if err != nil {
		return "", err
	}

	s.dispatcher.Publish(ctx, events.NewEvent(events.EventTokenRefreshed, subject, nil))
	return newAccess, nil
}

// Logout verifies the refresh token and removes both cache mappings.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.codec.Verify(refreshToken, auth.TokenKindRefresh)
	if err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, refreshToken); err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
		return err
	}
	s.dispatcher.Publish(ctx, events.NewEvent(events.EventLoggedOut, claims.Subject, nil))
	return nil
}

// TokenCodec exposes the codec for the gate chain.
func (s *AuthService) TokenCodec() *auth.TokenCodec {
	return s.codec
}

func (s *AuthService) issuePair(ctx context.Context, user *domain.User) (auth.TokenPair, error) {
	accessToken, err := s.codec.Issue(user.Username, auth.TokenKindAccess, s.accessTTL)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refreshToken, err := s.codec.Issue(user.Username, auth.TokenKindRefresh, s.refreshTTL)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	snap := auth.IdentitySnapshot{
		UserID:    user.ID,
		Username:  user.Username,
		Kind:      user.Kind,
		ExpiresAt: time.Now().Add(s.accessTTL),
	}
	if err := s.cache.Put(ctx, accessToken, refreshToken, snap); err != nil {
		return auth.TokenPair{}, fmt.Errorf("register session: %w", err)
	}
	return auth.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *AuthService) reinstall(ctx context.Context, username, accessToken, refreshToken string, expiresAt time.Time) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.ErrInvalidCredentials
		}
		return err
	}
	snap := auth.IdentitySnapshot{
		UserID:    user.ID,
		Username:  user.Username,
		Kind:      user.Kind,
		ExpiresAt: expiresAt,
	}
	return s.cache.Put(ctx, accessToken, refreshToken, snap)
}
