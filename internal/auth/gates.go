package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jinwuui/celeb-library-api-sub000/internal/api/dto"
)

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords. The two causes are indistinguishable to callers so
	// account enumeration stays impossible.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUsernameTaken is returned when guest registration hits an
	// existing username.
	ErrUsernameTaken = errors.New("username taken")
)

const invalidCredentialsMessage = "invalid username or password"

// TokenPair bundles the two tokens issued on login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Authenticator validates credentials and manages the token lifecycle. The
// concrete implementation lives in the service layer.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (TokenPair, error)
	RegisterGuest(ctx context.Context, username, password string) (TokenPair, error)
	RenewAccessToken(ctx context.Context, refreshToken string) (string, error)
}

// Routes names the token-issuing paths the gates activate on.
type Routes struct {
	LoginPath   string
	GuestPath   string
	RefreshPath string
}

// Gates implements the ordered request-authorization chain: login gate,
// refresh gate, then bearer verification for everything else. Each gate
// passes the request on, short-circuits with its own response, or records a
// failure for the renderer. At most one gate writes per request.
type Gates struct {
	authenticator Authenticator
	codec         *TokenCodec
	routes        Routes
	logger        *zap.Logger
}

// NewGates constructs the chain.
func NewGates(authenticator Authenticator, codec *TokenCodec, routes Routes, logger *zap.Logger) *Gates {
	return &Gates{authenticator: authenticator, codec: codec, routes: routes, logger: logger}
}

// LoginGate handles the login and guest-registration routes. On success it
// writes the token pair itself and no later gate or handler runs.
func (g *Gates) LoginGate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path != g.routes.LoginPath && path != g.routes.GuestPath {
			return c.Next()
		}
		if c.Method() != fiber.MethodPost {
			RecordFailure(c, &Failure{Kind: FailureMethodNotSupported, Message: "method " + c.Method() + " not supported"})
			return nil
		}

		var req dto.CredentialsRequest
		if err := c.BodyParser(&req); err != nil {
			RecordFailure(c, &Failure{Kind: FailureMalformedCredentials, Message: "malformed credentials"})
			return nil
		}
		if validation := req.Validate(); len(validation) > 0 {
			RecordFailure(c, &Failure{Kind: FailureMalformedCredentials, Message: "malformed credentials", Validation: validation})
			return nil
		}

		var (
			pair TokenPair
			err  error
		)
		if path == g.routes.GuestPath {
			pair, err = g.authenticator.RegisterGuest(c.Context(), req.Username, req.Password)
		} else {
			pair, err = g.authenticator.Authenticate(c.Context(), req.Username, req.Password)
		}
		if err != nil {
			switch {
			case errors.Is(err, ErrUsernameTaken):
				RecordFailure(c, &Failure{Kind: FailureAlreadyExists, Message: "username already exists"})
			case errors.Is(err, ErrInvalidCredentials):
				RecordFailure(c, &Failure{Kind: FailureUnauthorized, Message: invalidCredentialsMessage})
			default:
				g.logger.Error("login gate failed", zap.Error(err))
				return err
			}
			return nil
		}

		return c.JSON(dto.TokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	}
}

// RefreshGate handles the token-refresh route. The bearer token must be a
// refresh token; on success it writes the new access token and
// short-circuits.
func (g *Gates) RefreshGate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() != g.routes.RefreshPath {
			return c.Next()
		}
		if c.Method() != fiber.MethodPost {
			RecordFailure(c, &Failure{Kind: FailureMethodNotSupported, Message: "method " + c.Method() + " not supported"})
			return nil
		}

		refreshToken, ok := BearerToken(c)
		if !ok {
			RecordFailure(c, &Failure{Kind: FailureUnauthorized, Message: "missing bearer token"})
			return nil
		}

		accessToken, err := g.authenticator.RenewAccessToken(c.Context(), refreshToken)
		if err != nil {
			// Expiry, bad signature and wrong kind all collapse to the
			// same response.
			RecordFailure(c, &Failure{Kind: FailureUnauthorized, Message: "invalid refresh token"})
			return nil
		}

		return c.JSON(dto.RefreshResponse{AccessToken: accessToken})
	}
}

// BearerGate verifies the access token on every remaining route. A missing
// token leaves the request anonymous; a bad token only annotates the
// request, it never blocks. Whether anonymity is acceptable is decided by
// the business layer.
func (g *Gates) BearerGate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := BearerToken(c)
		if !ok {
			return c.Next()
		}

		claims, err := g.codec.Verify(token, TokenKindAccess)
		if err != nil {
			AnnotateBearerFault(c)
			return c.Next()
		}

		SetVerifiedSubject(c, claims.Subject)
		setBearerToken(c, token)
		return c.Next()
	}
}

// BearerToken extracts the token from the Authorization header. The prefix
// match is case-insensitive with a single space before the token.
func BearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

const bearerTokenKey = "auth_bearer_token"

func setBearerToken(c *fiber.Ctx, token string) {
	c.Locals(bearerTokenKey, token)
}

func verifiedBearerToken(c *fiber.Ctx) (string, bool) {
	val, ok := c.Locals(bearerTokenKey).(string)
	return val, ok && val != ""
}
