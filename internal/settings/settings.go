// Package settings loads the YAML file and environment overrides shared by
// hrive-authd and hrivectl and turns them into an engine configuration.
package settings

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hrive/hriveauth"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvListen    = "HRIVE_LISTEN"
	EnvRedisAddr = "HRIVE_REDIS_ADDR"
	EnvJWTSecret = "HRIVE_JWT_SECRET"
	EnvSeedToken = "HRIVE_SEED_TOKEN"
)

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWT struct {
	Secret     string        `yaml:"secret"`
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	AccessTTL  time.Duration `yaml:"access_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
}

// Password tunes argon2id. Memory is in KiB.
type Password struct {
	Memory      uint32 `yaml:"memory"`
	Time        uint32 `yaml:"time"`
	Parallelism uint8  `yaml:"parallelism"`
}

type Security struct {
	Production       bool     `yaml:"production"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	MaxLoginAttempts *int     `yaml:"max_login_attempts"`
	InsecureCookies  bool     `yaml:"insecure_cookies"`
}

type Seed struct {
	Enabled *bool                `yaml:"enabled"`
	Token   string               `yaml:"token"`
	Users   []hriveauth.SeedUser `yaml:"users"`
}

type Portal struct {
	ResolveTimeout time.Duration `yaml:"resolve_timeout"`
	JWTOnly        bool          `yaml:"jwt_only"`
}

type Audit struct {
	Enabled bool `yaml:"enabled"`
}

type Metrics struct {
	Enabled bool `yaml:"enabled"`
	Latency bool `yaml:"latency"`
}

// File is the on-disk configuration. Zero values keep engine defaults.
type File struct {
	Listen   string   `yaml:"listen"`
	Redis    Redis    `yaml:"redis"`
	JWT      JWT      `yaml:"jwt"`
	Password Password `yaml:"password"`
	Security Security `yaml:"security"`
	Seed     Seed     `yaml:"seed"`
	Portal   Portal   `yaml:"portal"`
	Audit    Audit    `yaml:"audit"`
	Metrics  Metrics  `yaml:"metrics"`
}

// Load reads path, or starts from an empty File when path is empty, and
// then applies environment overrides.
func Load(path string) (File, error) {
	var f File
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return File{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &f); err != nil {
			return File{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	f.applyEnv()
	return f, nil
}

// LoadSeedUsers reads a YAML list of users, either bare or under "users:".
func LoadSeedUsers(path string) ([]hriveauth.SeedUser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seeds: %w", err)
	}

	var wrapped struct {
		Users []hriveauth.SeedUser `yaml:"users"`
	}
	if err := yaml.Unmarshal(data, &wrapped); err == nil && len(wrapped.Users) > 0 {
		return wrapped.Users, nil
	}

	var users []hriveauth.SeedUser
	if err := yaml.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("parse seeds %s: %w", path, err)
	}
	if len(users) == 0 {
		return nil, errors.New("seed file lists no users")
	}
	return users, nil
}

func (f *File) applyEnv() {
	if v := os.Getenv(EnvListen); v != "" {
		f.Listen = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		f.Redis.Addr = v
	}
	if v := os.Getenv(EnvJWTSecret); v != "" {
		f.JWT.Secret = v
	}
	if v := os.Getenv(EnvSeedToken); v != "" {
		f.Seed.Token = v
	}
}

// ListenAddr defaults to :8080.
func (f File) ListenAddr() string {
	if f.Listen == "" {
		return ":8080"
	}
	return f.Listen
}

// EngineConfig overlays f on hriveauth.DefaultConfig. Tokens are signed
// with HS256 using the configured secret.
func (f File) EngineConfig() (hriveauth.Config, error) {
	cfg := hriveauth.DefaultConfig()

	secret := strings.TrimSpace(f.JWT.Secret)
	if secret == "" {
		return hriveauth.Config{}, fmt.Errorf("jwt secret is required (set jwt.secret or %s)", EnvJWTSecret)
	}
	cfg.JWT.SigningMethod = "hs256"
	cfg.JWT.PrivateKey = []byte(secret)
	if f.JWT.Issuer != "" {
		cfg.JWT.Issuer = f.JWT.Issuer
	}
	cfg.JWT.Audience = f.JWT.Audience
	if f.JWT.AccessTTL > 0 {
		cfg.JWT.AccessTTL = f.JWT.AccessTTL
	}
	if f.JWT.RefreshTTL > 0 {
		cfg.JWT.RefreshTTL = f.JWT.RefreshTTL
	}

	if f.Password.Memory > 0 {
		cfg.Password.Memory = f.Password.Memory
	}
	if f.Password.Time > 0 {
		cfg.Password.Time = f.Password.Time
	}
	if f.Password.Parallelism > 0 {
		cfg.Password.Parallelism = f.Password.Parallelism
	}

	cfg.Security.ProductionMode = f.Security.Production
	if len(f.Security.AllowedOrigins) > 0 {
		cfg.Security.AllowedOrigins = f.Security.AllowedOrigins
	}
	if f.Security.MaxLoginAttempts != nil {
		cfg.Security.MaxLoginAttempts = *f.Security.MaxLoginAttempts
	}
	if f.Security.InsecureCookies {
		cfg.Security.RequireSecureCookies = false
	}

	if f.Seed.Enabled != nil {
		cfg.Seed.Enabled = *f.Seed.Enabled
	}
	cfg.Seed.Token = f.Seed.Token
	if len(f.Seed.Users) > 0 {
		cfg.Seed.Users = f.Seed.Users
	}

	if f.Portal.ResolveTimeout > 0 {
		cfg.Portal.ResolveTimeout = f.Portal.ResolveTimeout
	}
	if f.Portal.JWTOnly {
		cfg.ValidationMode = hriveauth.ModeJWTOnly
	}

	cfg.Audit.Enabled = f.Audit.Enabled
	cfg.Metrics.Enabled = f.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = f.Metrics.Latency

	if err := cfg.Validate(); err != nil {
		return hriveauth.Config{}, err
	}
	return cfg, nil
}
