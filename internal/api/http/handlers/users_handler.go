package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jinwuui/celeb-library-api-sub000/internal/api/dto"
	"github.com/jinwuui/celeb-library-api-sub000/internal/auth"
)

// UsersHandler exposes account endpoints for the authenticated caller.
type UsersHandler struct {
	resolver *auth.IdentityResolver
}

// NewUsersHandler constructs the handler.
func NewUsersHandler(resolver *auth.IdentityResolver) *UsersHandler {
	return &UsersHandler{resolver: resolver}
}

// Me handles GET /api/users/me. Guests are allowed; anonymous callers are
// not.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	identity, err := h.resolver.RequireIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(dto.IdentityResponse{
		ID:       identity.ID,
		Username: identity.Username,
		Kind:     string(identity.Kind),
	})
}
