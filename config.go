package hriveauth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hrive/hriveauth/role"
)

// Config holds every Engine setting. Build a Config from [DefaultConfig]
// and override fields; [Builder.Build] calls [Config.Validate].
type Config struct {
	JWT            JWTConfig
	Session        SessionConfig
	Password       PasswordConfig
	Security       SecurityConfig
	Audit          AuditConfig
	Metrics        MetricsConfig
	Portal         PortalConfig
	Seed           SeedConfig
	ValidationMode ValidationMode
}

type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "ed25519" or "hs256"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
}

type SessionConfig struct {
	RedisPrefix     string
	DirectoryPrefix string
	LimiterPrefix   string
}

type PasswordConfig struct {
	Memory         uint32
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

type SecurityConfig struct {
	ProductionMode        bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	RequireSecureCookies  bool
	SameSitePolicy        http.SameSite
	// AllowedOrigins feeds the CORS headers of the HTTP functions. "*" allows any.
	AllowedOrigins []string
}

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// PortalConfig describes how browsers carry tokens to guarded portal routes.
type PortalConfig struct {
	AccessCookieName  string
	RefreshCookieName string
	// ResolveTimeout bounds server-side session resolution. A request that
	// exceeds it is served the loading placeholder.
	ResolveTimeout time.Duration
}

// SeedUser is one test account. Role is a wire role name.
type SeedUser struct {
	Email    string `yaml:"email" json:"email"`
	Password string `yaml:"password" json:"password"`
	Role     string `yaml:"role" json:"role"`
	FullName string `yaml:"full_name" json:"full_name,omitempty"`
}

type SeedConfig struct {
	Enabled bool
	// Token, when set, must be presented by callers of the seed function.
	Token string
	Users []SeedUser
}

// ValidationMode selects how Resolve treats access tokens.
type ValidationMode int

const (
	// ModeStrict checks the session record in Redis on every Resolve so
	// logout takes effect immediately.
	ModeStrict ValidationMode = iota
	// ModeJWTOnly trusts the signed claims until they expire.
	ModeJWTOnly
)

// DefaultSeedUsers returns the four portal test accounts, one per role.
func DefaultSeedUsers() []SeedUser {
	return []SeedUser{
		{Email: "admin@hrive.test", Password: "HriveAdmin#2024", Role: role.Admin.String(), FullName: "Ada Admin"},
		{Email: "hr.manager@hrive.test", Password: "HriveHR#2024", Role: role.HRManager.String(), FullName: "Hana Resources"},
		{Email: "line.manager@hrive.test", Password: "HriveLine#2024", Role: role.LineManager.String(), FullName: "Lee Manager"},
		{Email: "employee@hrive.test", Password: "HriveStaff#2024", Role: role.Employee.String(), FullName: "Emery Employee"},
	}
}

// DefaultConfig returns development defaults. JWT keys are left empty and
// must be supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "ed25519",
			Issuer:        "hrive",
			Leeway:        30 * time.Second,
		},
		Session: SessionConfig{
			RedisPrefix:     "hs",
			DirectoryPrefix: "hd",
			LimiterPrefix:   "hr",
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		Security: SecurityConfig{
			EnableIPThrottle:      true,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
			RequireSecureCookies:  true,
			SameSitePolicy:        http.SameSiteLaxMode,
			AllowedOrigins:        []string{"*"},
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Portal: PortalConfig{
			AccessCookieName:  "hrive_access",
			RefreshCookieName: "hrive_refresh",
			ResolveTimeout:    2 * time.Second,
		},
		Seed: SeedConfig{
			Enabled: true,
			Users:   DefaultSeedUsers(),
		},
		ValidationMode: ModeStrict,
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	out.Security.AllowedOrigins = append([]string(nil), cfg.Security.AllowedOrigins...)
	out.Seed.Users = append([]SeedUser(nil), cfg.Seed.Users...)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate reports the first invalid or unsafe setting.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be greater than AccessTTL")
	}
	switch c.JWT.SigningMethod {
	case "ed25519":
		if len(c.JWT.PrivateKey) == 0 || len(c.JWT.PublicKey) == 0 {
			return errors.New("ed25519 requires PrivateKey and PublicKey")
		}
	case "hs256":
		if len(c.JWT.PrivateKey) < 32 {
			return errors.New("hs256 requires a PrivateKey of at least 32 bytes")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Session
	if c.Session.RedisPrefix == "" || c.Session.DirectoryPrefix == "" || c.Session.LimiterPrefix == "" {
		return errors.New("Session prefixes must be non-empty")
	}
	if c.Session.RedisPrefix == c.Session.DirectoryPrefix {
		return errors.New("Session RedisPrefix and DirectoryPrefix must differ")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Security
	if c.Security.MaxLoginAttempts < 0 {
		return errors.New("Security MaxLoginAttempts must be >= 0")
	}
	if c.Security.MaxLoginAttempts > 0 && c.Security.LoginCooldownDuration <= 0 {
		return errors.New("Security LoginCooldownDuration must be > 0 when login throttling is on")
	}
	if c.Security.ProductionMode {
		if c.Security.MaxLoginAttempts == 0 {
			return errors.New("ProductionMode requires login throttling")
		}
		if !c.Security.RequireSecureCookies {
			return errors.New("ProductionMode requires secure cookies")
		}
		for _, origin := range c.Security.AllowedOrigins {
			if strings.TrimSpace(origin) == "*" {
				return errors.New("ProductionMode forbids wildcard AllowedOrigins")
			}
		}
		if c.Seed.Enabled && c.Seed.Token == "" {
			return errors.New("ProductionMode requires a Seed Token when seeding is enabled")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Portal
	if c.Portal.AccessCookieName == "" {
		return errors.New("Portal AccessCookieName must be set")
	}
	if c.Portal.ResolveTimeout <= 0 {
		return errors.New("Portal ResolveTimeout must be > 0")
	}

	// Seed
	seen := make(map[string]struct{}, len(c.Seed.Users))
	for _, u := range c.Seed.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" || u.Password == "" {
			return errors.New("Seed users need an email and a password")
		}
		if _, ok := role.Parse(u.Role); !ok {
			return errors.New("Seed user " + email + " has unknown role " + u.Role)
		}
		if _, dup := seen[email]; dup {
			return errors.New("Seed user " + email + " is listed twice")
		}
		seen[email] = struct{}{}
	}

	switch c.ValidationMode {
	case ModeStrict, ModeJWTOnly:
	default:
		return errors.New("invalid ValidationMode")
	}

	return nil
}
