package dto

// CredentialsRequest is the payload for login and guest registration.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate returns field-level problems, empty when the payload is usable.
func (r CredentialsRequest) Validate() map[string]string {
	problems := make(map[string]string)
	if r.Username == "" {
		problems["username"] = "username is required"
	}
	if r.Password == "" {
		problems["password"] = "password is required"
	}
	return problems
}

// TokenPairResponse is returned on successful login or guest registration.
type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse is returned on successful token refresh.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// IdentityResponse describes the authenticated caller.
type IdentityResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Kind     string `json:"kind"`
}
