package session

import "github.com/hrive/hriveauth/role"

// Session is one login of one user. RefreshHash is the SHA-256 of the
// current refresh secret; the secret itself is never stored.
type Session struct {
	SessionID string
	UserID    string
	Email     string
	Role      role.Role

	RefreshHash [32]byte

	CreatedAt int64
	ExpiresAt int64
}
