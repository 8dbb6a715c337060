package domain

import "time"

// UserKind separates full members from self-registered guests.
type UserKind string

const (
	UserKindMember UserKind = "MEMBER"
	UserKindGuest  UserKind = "GUEST"
)

// User is the domain model for account records. The auth core only reads
// these; account creation happens through the user store on guest signup.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Kind         UserKind
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
