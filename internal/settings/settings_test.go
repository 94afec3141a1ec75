package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hrive/hriveauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFile = `
listen: ":9090"
redis:
  addr: "redis:6379"
jwt:
  secret: "a-very-long-development-secret-value"
  access_ttl: 10m
  refresh_ttl: 48h
password:
  memory: 8192
  time: 1
  parallelism: 1
security:
  allowed_origins: ["https://portal.hrive.example"]
  max_login_attempts: 0
  insecure_cookies: true
seed:
  enabled: false
  users:
    - email: ops@hrive.test
      password: ops-password-1
      role: admin
portal:
  resolve_timeout: 500ms
  jwt_only: true
metrics:
  enabled: true
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAndEngineConfig(t *testing.T) {
	f, err := Load(writeFile(t, "hrive.yaml", sampleFile))
	require.NoError(t, err)

	assert.Equal(t, ":9090", f.ListenAddr())
	assert.Equal(t, "redis:6379", f.Redis.Addr)

	cfg, err := f.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, "hs256", cfg.JWT.SigningMethod)
	assert.Equal(t, 10*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 48*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, uint32(8192), cfg.Password.Memory)
	assert.Equal(t, uint32(1), cfg.Password.Time)
	assert.Equal(t, []string{"https://portal.hrive.example"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, 0, cfg.Security.MaxLoginAttempts)
	assert.False(t, cfg.Security.RequireSecureCookies)
	assert.False(t, cfg.Seed.Enabled)
	require.Len(t, cfg.Seed.Users, 1)
	assert.Equal(t, "admin", cfg.Seed.Users[0].Role)
	assert.Equal(t, 500*time.Millisecond, cfg.Portal.ResolveTimeout)
	assert.Equal(t, hriveauth.ModeJWTOnly, cfg.ValidationMode)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv(EnvRedisAddr, "other:6379")
	t.Setenv(EnvJWTSecret, "env-secret-that-is-long-enough-000")
	t.Setenv(EnvSeedToken, "seed-me")

	f, err := Load(writeFile(t, "hrive.yaml", sampleFile))
	require.NoError(t, err)
	assert.Equal(t, "other:6379", f.Redis.Addr)
	assert.Equal(t, "seed-me", f.Seed.Token)

	cfg, err := f.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, []byte("env-secret-that-is-long-enough-000"), cfg.JWT.PrivateKey)
}

func TestEngineConfigRequiresSecret(t *testing.T) {
	f, err := Load("")
	require.NoError(t, err)
	_, err = f.EngineConfig()
	assert.Error(t, err)
	assert.Equal(t, ":8080", f.ListenAddr())
}

func TestLoadSeedUsersBothShapes(t *testing.T) {
	wrapped := writeFile(t, "wrapped.yaml", "users:\n  - email: a@hrive.test\n    password: pw-0123456789\n    role: employee\n")
	users, err := LoadSeedUsers(wrapped)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "a@hrive.test", users[0].Email)

	bare := writeFile(t, "bare.yaml", "- email: b@hrive.test\n  password: pw-0123456789\n  role: line_manager\n  full_name: Bea\n")
	users, err = LoadSeedUsers(bare)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Bea", users[0].FullName)

	_, err = LoadSeedUsers(writeFile(t, "empty.yaml", "[]\n"))
	assert.Error(t, err)
}
