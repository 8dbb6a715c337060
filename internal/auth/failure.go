package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// FailureKind tags the category of a gate failure. Each kind maps to one
// stable HTTP status.
type FailureKind int

const (
	FailureUnauthorized FailureKind = iota
	FailureForbidden
	FailureMethodNotSupported
	FailureMalformedCredentials
	FailureAlreadyExists
)

// Failure is the typed value a gate records on the request context when it
// detects a problem but leaves rendering to the final step. Set at most
// once per request, consumed at most once by the renderer.
type Failure struct {
	Kind       FailureKind
	Message    string
	Validation map[string]string
}

// Status returns the HTTP status a failure kind renders as.
func (f *Failure) Status() int {
	switch f.Kind {
	case FailureUnauthorized:
		return http.StatusUnauthorized
	case FailureForbidden:
		return http.StatusForbidden
	case FailureMethodNotSupported:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusBadRequest
	}
}

const (
	failureKey     = "auth_failure"
	subjectKey     = "auth_subject"
	bearerFaultKey = "auth_bearer_fault"
)

// RecordFailure attaches a failure to the request. The first record wins;
// later gates must not overwrite it.
func RecordFailure(c *fiber.Ctx, f *Failure) {
	if c.Locals(failureKey) != nil {
		return
	}
	c.Locals(failureKey, f)
}

// ConsumeFailure removes and returns the recorded failure, if any.
func ConsumeFailure(c *fiber.Ctx) (*Failure, bool) {
	val := c.Locals(failureKey)
	if val == nil {
		return nil, false
	}
	c.Locals(failureKey, nil)
	f, ok := val.(*Failure)
	return f, ok
}

// SetVerifiedSubject attaches the username proven by a valid access token.
func SetVerifiedSubject(c *fiber.Ctx, username string) {
	c.Locals(subjectKey, username)
}

// VerifiedSubject returns the username proven by the bearer token, if one
// was verified for this request.
func VerifiedSubject(c *fiber.Ctx) (string, bool) {
	val := c.Locals(subjectKey)
	if val == nil {
		return "", false
	}
	username, ok := val.(string)
	return username, ok && username != ""
}

// AnnotateBearerFault marks the request as carrying a present-but-invalid
// bearer token. The request itself proceeds; routes that demand identity
// turn the annotation into an unauthorized failure.
func AnnotateBearerFault(c *fiber.Ctx) {
	c.Locals(bearerFaultKey, true)
}

// BearerFaulted reports whether the bearer token failed verification.
func BearerFaulted(c *fiber.Ctx) bool {
	val, ok := c.Locals(bearerFaultKey).(bool)
	return ok && val
}
