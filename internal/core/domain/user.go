package domain

import "time"

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// Role is a named capability bucket. The name decides which operations a
// user may invoke.
type Role struct {
	Name string `json:"name"`
}

// IsAdmin reports whether the role bypasses the operation policy table.
func (r Role) IsAdmin() bool {
	return r.Name == RoleAdmin
}

// User models an authenticated actor in the system. Name is the identity.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// SameIdentity reports whether u and other denote the same user.
// A nil user never matches anything.
func (u *User) SameIdentity(other *User) bool {
	if u == nil || other == nil {
		return false
	}
	return u.Name == other.Name
}

// Password holds the encoded digest of a user's secret. It never carries plaintext.
type Password struct {
	UserName string `json:"-"`
	Hash     string `json:"-"`
}

// Session is the result of a successful login. The token is passed back on
// every later call instead of being held as shared manager state.
type Session struct {
	Token     string    `json:"token"`
	User      *User     `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}
