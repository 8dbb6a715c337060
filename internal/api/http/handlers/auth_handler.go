package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/jinwuui/celeb-library-api-sub000/internal/auth"
	"github.com/jinwuui/celeb-library-api-sub000/internal/service"
	apperrors "github.com/jinwuui/celeb-library-api-sub000/pkg/util"
)

// AuthHandler exposes the session-teardown endpoint. Login, guest
// registration and refresh are owned by the gate chain.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Logout handles POST /api/auth/logout. The bearer token is the refresh
// token; invalidating it tears down the cached session pair.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	refreshToken, ok := auth.BearerToken(c)
	if !ok {
		return apperrors.NewUnauthorized("missing bearer token")
	}
	if err := h.auth.Logout(c.Context(), refreshToken); err != nil {
		return apperrors.NewUnauthorized("invalid refresh token")
	}
	return c.SendStatus(http.StatusNoContent)
}
