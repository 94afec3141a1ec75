package directory

import (
	"strings"
	"time"

	"github.com/hrive/hriveauth/role"
)

// User is a stored account.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"password_hash"`
	Role         string         `json:"role,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ExtractRole resolves the portal role of u. The first non-empty role
// string wins, in order: user metadata, app metadata, top-level field.
// A winning string that is not a known role yields role.Unknown; no role
// string at all yields role.None.
func ExtractRole(u User) role.Role {
	for _, candidate := range []string{
		metadataString(u.UserMetadata, "role"),
		metadataString(u.AppMetadata, "role"),
		u.Role,
	} {
		if strings.TrimSpace(candidate) == "" {
			continue
		}
		return role.Lookup(candidate)
	}
	return role.None
}

func metadataString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// NormalizeEmail is the index form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
