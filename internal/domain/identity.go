package domain

// Identity is the request-scoped view of the caller, built once per request
// after the bearer token has been verified. Immutable; never shared across
// requests.
type Identity struct {
	ID       int64
	Username string
	Kind     UserKind
	// Anonymous is set when the request carried no verifiable bearer token
	// and the route permits unauthenticated access.
	Anonymous bool
}

// AnonymousIdentity marks a request with no verified caller.
func AnonymousIdentity() Identity {
	return Identity{Anonymous: true}
}

// IsGuest reports whether the caller is a guest account. Anonymous callers
// are not guests; they have no account at all.
func (i Identity) IsGuest() bool {
	return !i.Anonymous && i.Kind == UserKindGuest
}
