package functions

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hrive/hriveauth"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Config controls CORS, cookies, and the seed secret.
type Config struct {
	AllowedOrigins []string
	// SetCookies makes login and refresh also set the portal cookies that
	// the route guard reads.
	SetCookies        bool
	AccessCookieName  string
	RefreshCookieName string
	SecureCookies     bool
	SameSite          http.SameSite
	// SeedToken, when non-empty, must match the X-Seed-Token header.
	SeedToken string
	Logger    *slog.Logger
	// Now is used for cookie expiry; tests may override it.
	Now func() time.Time
}

// ConfigFrom derives function settings from an engine configuration.
func ConfigFrom(cfg hriveauth.Config) Config {
	return Config{
		AllowedOrigins:    append([]string(nil), cfg.Security.AllowedOrigins...),
		SetCookies:        true,
		AccessCookieName:  cfg.Portal.AccessCookieName,
		RefreshCookieName: cfg.Portal.RefreshCookieName,
		SecureCookies:     cfg.Security.RequireSecureCookies,
		SameSite:          cfg.Security.SameSitePolicy,
		SeedToken:         cfg.Seed.Token,
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
