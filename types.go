package hriveauth

import (
	"context"
	"time"

	"github.com/hrive/hriveauth/directory"
	"github.com/hrive/hriveauth/role"
)

// UserDirectory stores HRive accounts. *directory.Store implements it.
type UserDirectory interface {
	Create(ctx context.Context, u directory.User) (directory.User, error)
	GetByID(ctx context.Context, id string) (directory.User, error)
	GetByEmail(ctx context.Context, email string) (directory.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// Tokens is an issued access/refresh pair.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64
}

// UserProfile is the public view of an account. Role is the raw top-level
// role field as stored.
type UserProfile struct {
	ID           string
	Email        string
	Role         string
	UserMetadata map[string]any
	AppMetadata  map[string]any
}

// LoginResult is returned by a successful Login. Role is the effective
// portal role and may be role.None.
type LoginResult struct {
	Tokens
	User UserProfile
	Role role.Role
}

// Identity is a validated access token.
type Identity struct {
	UserID    string
	SessionID string
	Email     string
	Role      role.Role
	ExpiresAt time.Time
}

// SeedResult lists seeded emails by outcome.
type SeedResult struct {
	Created  []string
	Existing []string
}

func profileOf(u directory.User) UserProfile {
	return UserProfile{
		ID:           u.ID,
		Email:        u.Email,
		Role:         u.Role,
		UserMetadata: u.UserMetadata,
		AppMetadata:  u.AppMetadata,
	}
}
