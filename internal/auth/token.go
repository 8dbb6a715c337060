package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind distinguishes short-lived access tokens from long-lived refresh
// tokens. A token is only accepted in the context matching its kind.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "ACCESS"
	TokenKindRefresh TokenKind = "REFRESH"
)

var (
	// ErrTokenInvalid covers signature mismatches and structurally
	// malformed tokens.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired is returned once now >= expiresAt. No leeway.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenKindMismatch is returned when a token of the wrong kind is
	// presented, e.g. a refresh token where an access token is expected.
	ErrTokenKindMismatch = errors.New("token kind mismatch")
)

// Claims describes the JWT payload carried by issued tokens.
type Claims struct {
	Kind TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies signed bearer tokens.
type TokenCodec struct {
	secret []byte
}

// NewTokenCodec builds a codec around the shared signing secret.
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret)}
}

// Issue produces a signed token for the subject. Each call embeds a fresh
// unique id so reissued tokens with identical claims remain distinct.
func (tc *TokenCodec) Issue(subject string, kind TokenKind, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tc.secret)
}

// Verify decodes the token, checks its signature and expiry, and enforces
// the expected kind. Expiry is strict: a token is invalid starting exactly
// at its expiry instant.
func (tc *TokenCodec) Verify(tokenStr string, expected TokenKind) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenInvalid
		}
		return tc.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Kind != expected {
		return nil, ErrTokenKindMismatch
	}
	return claims, nil
}
