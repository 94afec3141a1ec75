package hriveauth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hrive/hriveauth/directory"
	"github.com/hrive/hriveauth/guard"
	"github.com/hrive/hriveauth/role"
	"github.com/redis/go-redis/v9"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.SigningMethod = "hs256"
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true
	cfg.Security.MaxLoginAttempts = 3
	return cfg
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func newTestEngine(t *testing.T, mutate func(*Config)) (*Engine, *miniredis.Miniredis) {
	t.Helper()
	mr, rdb := newTestRedis(t)
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, mr
}

func seedOne(t *testing.T, e *Engine, email, pass, roleName string) UserProfile {
	t.Helper()
	p, err := e.CreateUser(context.Background(), SeedUser{Email: email, Password: pass, Role: roleName})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return p
}

func TestLoginIssuesSession(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	seedOne(t, e, "Hana@HRive.test", "hr-manager-pass", "hr_manager")

	res, err := e.Login(ctx, " hana@hrive.test ", "hr-manager-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Role != role.HRManager {
		t.Fatalf("role = %v, want hr_manager", res.Role)
	}
	if res.AccessToken == "" || res.RefreshToken == "" || res.TokenType != "bearer" {
		t.Fatalf("incomplete tokens: %+v", res.Tokens)
	}
	if res.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Fatalf("expires_in = %d", res.ExpiresIn)
	}
	if res.User.Email != "hana@hrive.test" || res.User.UserMetadata["role"] != "hr_manager" {
		t.Fatalf("unexpected profile %+v", res.User)
	}

	id, err := e.Validate(ctx, res.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if id.UserID != res.User.ID || id.Role != role.HRManager {
		t.Fatalf("unexpected identity %+v", id)
	}

	if got := e.MetricsSnapshot().Counters[MetricLoginSuccess]; got != 1 {
		t.Fatalf("login success metric = %d", got)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	seedOne(t, e, "emery@hrive.test", "employee-pass", "employee")

	if _, err := e.Login(ctx, "emery@hrive.test", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := e.Login(ctx, "nobody@hrive.test", "employee-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := e.Login(ctx, "", "x"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("empty email: expected ErrInvalidRequest, got %v", err)
	}
}

func TestLoginRateLimited(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := WithClientIP(context.Background(), "10.1.1.1")
	seedOne(t, e, "lee@hrive.test", "line-manager-pass", "line_manager")

	for i := 0; i < 3; i++ {
		if _, err := e.Login(ctx, "lee@hrive.test", "bad-password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if _, err := e.Login(ctx, "lee@hrive.test", "line-manager-pass"); !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("expected ErrLoginRateLimited, got %v", err)
	}
	if got := e.MetricsSnapshot().Counters[MetricLoginRateLimited]; got != 1 {
		t.Fatalf("rate limited metric = %d", got)
	}
}

type memDirectory struct {
	byEmail map[string]directory.User
}

func (m *memDirectory) Create(_ context.Context, u directory.User) (directory.User, error) {
	if _, ok := m.byEmail[u.Email]; ok {
		return directory.User{}, directory.ErrUserExists
	}
	u.ID = "mem-" + u.Email
	m.byEmail[u.Email] = u
	return u, nil
}

func (m *memDirectory) GetByID(_ context.Context, id string) (directory.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return directory.User{}, directory.ErrUserNotFound
}

func (m *memDirectory) GetByEmail(_ context.Context, email string) (directory.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return directory.User{}, directory.ErrUserNotFound
	}
	return u, nil
}

func (m *memDirectory) UpdatePasswordHash(_ context.Context, id, hash string) error {
	for k, u := range m.byEmail {
		if u.ID == id {
			u.PasswordHash = hash
			m.byEmail[k] = u
			return nil
		}
	}
	return directory.ErrUserNotFound
}

func TestLoginRolePrecedence(t *testing.T) {
	_, rdb := newTestRedis(t)
	dir := &memDirectory{byEmail: map[string]directory.User{}}
	e, err := New().WithConfig(testConfig()).WithRedis(rdb).WithDirectory(dir).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer e.Close()

	hash, err := e.hasher.Hash("shared-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	tests := []struct {
		email string
		user  directory.User
		want  role.Role
	}{
		{"app@hrive.test", directory.User{Role: "employee", AppMetadata: map[string]any{"role": "line_manager"}}, role.LineManager},
		{"top@hrive.test", directory.User{Role: "hr_manager"}, role.HRManager},
		{"odd@hrive.test", directory.User{Role: "admin", UserMetadata: map[string]any{"role": "superuser"}}, role.Unknown},
		{"none@hrive.test", directory.User{}, role.Unknown},
	}
	for _, tt := range tests {
		u := tt.user
		u.Email = tt.email
		u.PasswordHash = hash
		if _, err := dir.Create(context.Background(), u); err != nil {
			t.Fatalf("create %s: %v", tt.email, err)
		}

		res, err := e.Login(context.Background(), tt.email, "shared-password")
		if err != nil {
			t.Fatalf("%s: login: %v", tt.email, err)
		}
		if res.Role != tt.want {
			t.Fatalf("%s: role = %v, want %v", tt.email, res.Role, tt.want)
		}
		id, err := e.Validate(context.Background(), res.AccessToken)
		if err != nil || id.Role != tt.want {
			t.Fatalf("%s: validate = %+v, %v", tt.email, id, err)
		}
	}
}

func TestRefreshRotatesAndDetectsReuse(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	seedOne(t, e, "ada@hrive.test", "admin-password", "admin")

	res, err := e.Login(ctx, "ada@hrive.test", "admin-password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	next, err := e.Refresh(ctx, res.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.RefreshToken == res.RefreshToken {
		t.Fatal("refresh token must rotate")
	}
	id, err := e.Validate(ctx, next.AccessToken)
	if err != nil || id.Role != role.Admin {
		t.Fatalf("validate rotated access: %+v, %v", id, err)
	}

	if _, err := e.Refresh(ctx, res.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("reuse: expected ErrRefreshInvalid, got %v", err)
	}
	if _, err := e.Refresh(ctx, next.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("session should be revoked after reuse, got %v", err)
	}
	if _, err := e.Validate(ctx, next.AccessToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after reuse, got %v", err)
	}
	if _, err := e.Refresh(ctx, "garbage"); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("garbage: expected ErrRefreshInvalid, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	seedOne(t, e, "emery@hrive.test", "employee-pass", "employee")

	res, err := e.Login(ctx, "emery@hrive.test", "employee-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := e.Logout(ctx, res.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := e.Validate(ctx, res.AccessToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := e.Logout(ctx, res.AccessToken); err != nil {
		t.Fatalf("second logout should succeed, got %v", err)
	}
	if err := e.Logout(ctx, "not-a-jwt"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLogoutAll(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	p := seedOne(t, e, "emery@hrive.test", "employee-pass", "employee")

	var tokens []string
	for i := 0; i < 3; i++ {
		res, err := e.Login(ctx, "emery@hrive.test", "employee-pass")
		if err != nil {
			t.Fatalf("login %d: %v", i, err)
		}
		tokens = append(tokens, res.AccessToken)
	}

	n, err := e.LogoutAll(ctx, p.ID)
	if err != nil || n != 3 {
		t.Fatalf("logout all = %d, %v", n, err)
	}
	for _, tok := range tokens {
		if _, err := e.Validate(ctx, tok); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("expected revoked, got %v", err)
		}
	}
}

func TestValidateJWTOnlyModeSkipsStore(t *testing.T) {
	e, mr := newTestEngine(t, func(c *Config) { c.ValidationMode = ModeJWTOnly })
	ctx := context.Background()
	seedOne(t, e, "ada@hrive.test", "admin-password", "admin")

	res, err := e.Login(ctx, "ada@hrive.test", "admin-password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	mr.FlushAll()

	id, err := e.Validate(ctx, res.AccessToken)
	if err != nil || id.Role != role.Admin {
		t.Fatalf("jwt-only validate: %+v, %v", id, err)
	}
}

func TestResolveReportsStoreOutage(t *testing.T) {
	e, mr := newTestEngine(t, nil)
	ctx := context.Background()
	seedOne(t, e, "ada@hrive.test", "admin-password", "admin")

	res, err := e.Login(ctx, "ada@hrive.test", "admin-password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	got, err := e.Resolve(ctx, res.AccessToken)
	if err != nil || got.Role != role.Admin || got.Email != "ada@hrive.test" {
		t.Fatalf("resolve: %+v, %v", got, err)
	}

	mr.Close()
	if _, err := e.Resolve(ctx, res.AccessToken); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestAuditEventsEmitted(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false
	sink := NewChannelSink(16)

	e, err := New().WithConfig(cfg).WithRedis(rdb).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ctx := WithUserAgent(WithClientIP(context.Background(), "10.0.0.9"), "test-agent")
	seedOne(t, e, "ada@hrive.test", "admin-password", "admin")
	if _, err := e.Login(ctx, "ada@hrive.test", "admin-password"); err != nil {
		t.Fatalf("login: %v", err)
	}
	e.Close()

	var login *AuditEvent
	for len(sink.Events()) > 0 {
		ev := <-sink.Events()
		if ev.Kind == AuditLoginSuccess {
			login = &ev
		}
	}
	if login == nil {
		t.Fatal("no login_success event")
	}
	if login.IP != "10.0.0.9" || login.Role != role.Admin || login.UserAgent != "test-agent" || login.Email != "ada@hrive.test" {
		t.Fatalf("unexpected event %+v", login)
	}
}

func TestObserveDecisionAuditsWrongPortal(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false
	sink := NewChannelSink(8)
	e, err := New().WithConfig(cfg).WithRedis(rdb).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	s := guard.Session{User: &guard.User{ID: "u1"}, Role: role.Employee}
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	e.ObserveDecision(req, guard.Evaluate(s, role.NewSet(role.Admin), "/admin/users"))
	e.ObserveDecision(req, guard.Evaluate(guard.Session{}, role.NewSet(role.Admin), "/admin/users"))
	e.ObserveDecision(nil, guard.Evaluate(s, role.NewSet(role.HRManager), "/hr/dashboard"))
	e.Close()

	var denied []AuditEvent
	for len(sink.Events()) > 0 {
		if ev := <-sink.Events(); ev.Kind == AuditPortalDenied {
			denied = append(denied, ev)
		}
	}
	if len(denied) != 2 {
		t.Fatalf("expected 2 portal_denied events, got %+v", denied)
	}
	if denied[0].Path != "/admin/users" || denied[0].Target != "/employee/dashboard" || denied[0].Role != role.Employee {
		t.Fatalf("unexpected event %+v", denied[0])
	}
}

func TestBuilderSingleUse(t *testing.T) {
	_, rdb := newTestRedis(t)
	b := New().WithConfig(testConfig()).WithRedis(rdb)
	if _, err := b.Build(); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second build to fail")
	}
	if _, err := New().WithConfig(testConfig()).Build(); err == nil {
		t.Fatal("expected missing redis to fail")
	}
}

func TestNilEngine(t *testing.T) {
	var e *Engine
	if _, err := e.Login(context.Background(), "a", "b"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := e.SeedTestUsers(context.Background()); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	e.Close()
}

func TestUnrecognizedRoleIsSentToSignIn(t *testing.T) {
	for _, mode := range []ValidationMode{ModeStrict, ModeJWTOnly} {
		_, rdb := newTestRedis(t)
		dir := &memDirectory{byEmail: map[string]directory.User{}}
		cfg := testConfig()
		cfg.ValidationMode = mode
		e, err := New().WithConfig(cfg).WithRedis(rdb).WithDirectory(dir).Build()
		if err != nil {
			t.Fatalf("build: %v", err)
		}

		hash, err := e.hasher.Hash("superuser-pass")
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		if _, err := dir.Create(context.Background(), directory.User{
			Email:        "root@hrive.test",
			PasswordHash: hash,
			UserMetadata: map[string]any{"role": "superuser"},
		}); err != nil {
			t.Fatalf("create: %v", err)
		}

		res, err := e.Login(context.Background(), "root@hrive.test", "superuser-pass")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		id, err := e.Resolve(context.Background(), res.AccessToken)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if id.Role != role.Unknown {
			t.Fatalf("mode %d: resolved role = %v, want unknown", mode, id.Role)
		}

		s := guard.Session{User: &guard.User{ID: id.UserID, Email: id.Email}, Role: id.Role}
		for _, r := range role.All() {
			d := guard.Evaluate(s, role.NewSet(r), role.HomePath(r))
			if d.Outcome != guard.OutcomeRedirect || d.Target != role.SignInPath {
				t.Fatalf("mode %d: %s portal decision = %+v, want sign-in redirect", mode, r, d)
			}
		}
		e.Close()
	}
}
