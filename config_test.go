package hriveauth

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{name: "baseline", mutate: func(*Config) {}, wantValid: true},
		{name: "jwt leeway invalid", mutate: func(c *Config) { c.JWT.Leeway = 3 * time.Minute }},
		{name: "refresh not longer than access", mutate: func(c *Config) { c.JWT.RefreshTTL = c.JWT.AccessTTL }},
		{name: "short hs256 key", mutate: func(c *Config) { c.JWT.PrivateKey = []byte("short") }},
		{name: "unknown signing method", mutate: func(c *Config) { c.JWT.SigningMethod = "rs256" }},
		{name: "ed25519 without keys", mutate: func(c *Config) { c.JWT.SigningMethod = "ed25519" }},
		{name: "shared prefixes", mutate: func(c *Config) { c.Session.DirectoryPrefix = c.Session.RedisPrefix }},
		{name: "weak argon memory", mutate: func(c *Config) { c.Password.Memory = 1024 }},
		{name: "throttle without cooldown", mutate: func(c *Config) { c.Security.LoginCooldownDuration = 0 }},
		{name: "throttle off", mutate: func(c *Config) { c.Security.MaxLoginAttempts = 0 }, wantValid: true},
		{name: "audit zero buffer", mutate: func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 }},
		{name: "missing cookie name", mutate: func(c *Config) { c.Portal.AccessCookieName = "" }},
		{name: "zero resolve timeout", mutate: func(c *Config) { c.Portal.ResolveTimeout = 0 }},
		{name: "seed unknown role", mutate: func(c *Config) {
			c.Seed.Users = []SeedUser{{Email: "a@hrive.test", Password: "long-enough", Role: "ceo"}}
		}},
		{name: "seed duplicate email", mutate: func(c *Config) {
			c.Seed.Users = []SeedUser{
				{Email: "a@hrive.test", Password: "long-enough", Role: "admin"},
				{Email: "A@hrive.test", Password: "long-enough", Role: "employee"},
			}
		}},
		{name: "production wildcard origin", mutate: func(c *Config) {
			c.Security.ProductionMode = true
			c.Seed.Token = "secret"
		}},
		{name: "production seeding without token", mutate: func(c *Config) {
			c.Security.ProductionMode = true
			c.Security.AllowedOrigins = []string{"https://hrive.example"}
		}},
		{name: "production locked down", mutate: func(c *Config) {
			c.Security.ProductionMode = true
			c.Security.AllowedOrigins = []string{"https://hrive.example"}
			c.Seed.Enabled = false
		}, wantValid: true},
		{name: "bad validation mode", mutate: func(c *Config) { c.ValidationMode = 9 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestWithConfigClones(t *testing.T) {
	cfg := testConfig()
	b := New().WithConfig(cfg)
	cfg.JWT.PrivateKey[0] = 'X'
	cfg.Seed.Users[0].Email = "changed@hrive.test"

	if b.config.JWT.PrivateKey[0] == 'X' {
		t.Fatal("builder shares key bytes with caller")
	}
	if b.config.Seed.Users[0].Email == "changed@hrive.test" {
		t.Fatal("builder shares seed users with caller")
	}
}

func TestDefaultSeedUsersCoverEveryRole(t *testing.T) {
	seen := map[string]bool{}
	for _, u := range DefaultSeedUsers() {
		seen[u.Role] = true
	}
	for _, name := range []string{"admin", "hr_manager", "line_manager", "employee"} {
		if !seen[name] {
			t.Fatalf("no seed user for %s", name)
		}
	}
}
