package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/jinwuui/celeb-library-api-sub000/internal/domain"
	"github.com/jinwuui/celeb-library-api-sub000/internal/repository"
	apperrors "github.com/jinwuui/celeb-library-api-sub000/pkg/util"
)

// IdentityResolver builds the request-scoped identity after the gate chain
// has admitted a request. The session cache is consulted first; the user
// store is the fallback and the authority on whether the account still
// exists.
type IdentityResolver struct {
	users repository.UserRepository
	cache SessionCache
}

// NewIdentityResolver constructs the resolver.
func NewIdentityResolver(users repository.UserRepository, cache SessionCache) *IdentityResolver {
	return &IdentityResolver{users: users, cache: cache}
}

// Resolve returns the caller's identity. Requests without a verifiable
// bearer token resolve as anonymous, including requests whose token failed
// verification; routes that need a real identity use RequireIdentity.
func (r *IdentityResolver) Resolve(c *fiber.Ctx) (domain.Identity, error) {
	username, ok := VerifiedSubject(c)
	if !ok {
		return domain.AnonymousIdentity(), nil
	}

	if token, ok := verifiedBearerToken(c); ok {
		if snap, err := r.cache.Resolve(c.Context(), token); err == nil {
			return domain.Identity{ID: snap.UserID, Username: snap.Username, Kind: snap.Kind}, nil
		}
	}

	user, err := r.users.GetByUsername(c.Context(), username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Token still valid, account gone.
			return domain.Identity{}, apperrors.NewUnauthorized("account no longer exists")
		}
		return domain.Identity{}, err
	}
	return domain.Identity{ID: user.ID, Username: user.Username, Kind: user.Kind}, nil
}

// RequireIdentity resolves the caller and rejects anonymous requests,
// including those whose bearer token failed verification.
func (r *IdentityResolver) RequireIdentity(c *fiber.Ctx) (domain.Identity, error) {
	identity, err := r.Resolve(c)
	if err != nil {
		return domain.Identity{}, err
	}
	if identity.Anonymous {
		if BearerFaulted(c) {
			return domain.Identity{}, apperrors.NewUnauthorized("invalid or expired token")
		}
		return domain.Identity{}, apperrors.NewUnauthorized("authentication required")
	}
	return identity, nil
}
