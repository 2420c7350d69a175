package model

import "time"

// Role values stored in the users.role column.  The set is closed: every
// account is exactly one of admin, moderator or user.  Authorization
// decisions compare the role claim of an access token against these
// constants, so the strings here must match what the token service signs.
const (
	RoleAdmin     = "admin"     // full access, including contact deletion
	RoleModerator = "moderator" // elevated tier, currently same surface as user
	RoleUser      = "user"      // default role assigned at signup
)

// ValidRole reports whether s is one of the known role names.
func ValidRole(s string) bool {
	return s == RoleAdmin || s == RoleModerator || s == RoleUser
}

// User represents an account record as stored in the `users` table.  Each
// field corresponds to a column.  The json tags are omitted because these
// structs are used internally by the repository layer; handlers define
// separate response types with appropriate JSON tags.
//
// RefreshTokenHash holds the SHA-256 hex digest of the latest issued
// refresh token, or nil when no refresh session is active.  Only one
// refresh token is valid per user at any time.
type User struct {
	ID               uint64    // users.id
	Email            string    // users.email
	Username         string    // users.username
	PasswordHash     string    // users.password_hash
	Role             string    // users.role
	Confirmed        bool      // users.confirmed
	RefreshTokenHash *string   // users.refresh_token_hash (nullable)
	Avatar           string    // users.avatar
	CreatedAt        time.Time // users.created_at
	UpdatedAt        time.Time // users.updated_at
}
