package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCodec_IssueAndVerify(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	tests := []struct {
		name string
		kind TokenKind
	}{
		{name: "access token", kind: TokenKindAccess},
		{name: "refresh token", kind: TokenKindRefresh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := codec.Issue("alice", tt.kind, time.Minute)
			require.NoError(t, err)
			require.NotEmpty(t, token)

			claims, err := codec.Verify(token, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, "alice", claims.Subject)
			assert.Equal(t, tt.kind, claims.Kind)
			assert.NotEmpty(t, claims.ID)
		})
	}
}

func TestTokenCodec_UniqueIDPerIssue(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	first, err := codec.Issue("alice", TokenKindAccess, time.Minute)
	require.NoError(t, err)
	second, err := codec.Issue("alice", TokenKindAccess, time.Minute)
	require.NoError(t, err)

	// Identical claims must still yield distinct tokens.
	assert.NotEqual(t, first, second)

	firstClaims, err := codec.Verify(first, TokenKindAccess)
	require.NoError(t, err)
	secondClaims, err := codec.Verify(second, TokenKindAccess)
	require.NoError(t, err)
	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestTokenCodec_Expired(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	token, err := codec.Issue("alice", TokenKindAccess, -time.Second)
	require.NoError(t, err)

	claims, err := codec.Verify(token, TokenKindAccess)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenCodec_KindMismatch(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	refresh, err := codec.Issue("alice", TokenKindRefresh, time.Hour)
	require.NoError(t, err)
	access, err := codec.Issue("alice", TokenKindAccess, time.Hour)
	require.NoError(t, err)

	_, err = codec.Verify(refresh, TokenKindAccess)
	assert.ErrorIs(t, err, ErrTokenKindMismatch)

	_, err = codec.Verify(access, TokenKindRefresh)
	assert.ErrorIs(t, err, ErrTokenKindMismatch)
}

func TestTokenCodec_Invalid(t *testing.T) {
	codec := NewTokenCodec("test-secret")
	other := NewTokenCodec("other-secret")

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "garbage string",
			token: func(t *testing.T) string {
				return "not.a.token"
			},
		},
		{
			name: "empty string",
			token: func(t *testing.T) string {
				return ""
			},
		},
		{
			name: "signed with a different secret",
			token: func(t *testing.T) string {
				token, err := other.Issue("alice", TokenKindAccess, time.Minute)
				require.NoError(t, err)
				return token
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Verify(tt.token(t), TokenKindAccess)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}
