package hriveauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrive/hriveauth/directory"
	"github.com/hrive/hriveauth/internal/audit"
	"github.com/hrive/hriveauth/internal/rate"
	"github.com/hrive/hriveauth/jwt"
	"github.com/hrive/hriveauth/password"
	"github.com/hrive/hriveauth/refresh"
	"github.com/hrive/hriveauth/resolver"
	"github.com/hrive/hriveauth/role"
	"github.com/hrive/hriveauth/session"
)

// Engine runs HRive sign-in, token refresh, logout, and test-user seeding.
// Construct it with [Builder].
type Engine struct {
	config   Config
	sessions *session.Store
	users    UserDirectory
	limiter  *rate.Limiter
	hasher   *password.Argon2
	jwt      *jwt.Manager
	audit    *audit.Dispatcher
	metrics  *Metrics
	logger   *slog.Logger
}

// Close flushes pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// Config returns a copy of the Engine's configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Metrics exposes the live counters, for exporters and the HTTP adapters.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login verifies email and password and opens a session.
//
// Unknown emails and wrong passwords both return ErrInvalidCredentials after
// comparable work. Each failure counts against the login budget for the
// email and, when enabled, the client IP from [WithClientIP].
func (e *Engine) Login(ctx context.Context, email, pass string) (*LoginResult, error) {
	if e == nil || e.sessions == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	email = directory.NormalizeEmail(email)
	if email == "" || pass == "" {
		return nil, ErrInvalidRequest
	}
	ip := clientIPFromContext(ctx)

	if err := e.limiter.Check(ctx, email, ip); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, AuditEvent{Kind: AuditLoginRateLimited, Email: email})
			return nil, ErrLoginRateLimited
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	user, err := e.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			e.hasher.VerifyDummy(pass)
			return nil, e.loginFailed(ctx, email, ip, "")
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	ok, err := e.hasher.Verify(pass, user.PasswordHash)
	if err != nil {
		e.logger.ErrorContext(ctx, "stored password hash unreadable", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, e.loginFailed(ctx, email, ip, user.ID)
	}
	if !ok {
		return nil, e.loginFailed(ctx, email, ip, user.ID)
	}

	if err := e.limiter.Reset(ctx, email); err != nil {
		e.logger.WarnContext(ctx, "login limiter reset failed", slog.Any("error", err))
	}
	e.maybeUpgradeHash(ctx, user, pass)

	// A stored account's role is final. Without a portal role it resolves
	// to Unknown, which every guard sends to sign-in.
	r := directory.ExtractRole(user)
	if r == role.None {
		r = role.Unknown
	}
	tokens, sid, err := e.issueSession(ctx, user.ID, user.Email, r)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, AuditEvent{Kind: AuditLoginSuccess, UserID: user.ID, SessionID: sid, Email: user.Email, Role: r})

	return &LoginResult{
		Tokens: tokens,
		User:   profileOf(user),
		Role:   r,
	}, nil
}

func (e *Engine) loginFailed(ctx context.Context, email, ip, userID string) error {
	if err := e.limiter.Fail(ctx, email, ip); err != nil {
		e.logger.WarnContext(ctx, "login limiter update failed", slog.Any("error", err))
	}
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, AuditEvent{Kind: AuditLoginFailure, UserID: userID, Email: email, Err: ErrInvalidCredentials.Error()})
	return ErrInvalidCredentials
}

func (e *Engine) maybeUpgradeHash(ctx context.Context, user directory.User, pass string) {
	if !e.config.Password.UpgradeOnLogin {
		return
	}
	upgrade, err := e.hasher.NeedsUpgrade(user.PasswordHash)
	if err != nil || !upgrade {
		return
	}
	hash, err := e.hasher.Hash(pass)
	if err != nil {
		return
	}
	if err := e.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		e.logger.WarnContext(ctx, "password hash upgrade failed", slog.String("user_id", user.ID), slog.Any("error", err))
	}
}

func (e *Engine) issueSession(ctx context.Context, userID, email string, r role.Role) (Tokens, string, error) {
	sid := refresh.NewSessionID()
	secret, err := refresh.NewSecret()
	if err != nil {
		return Tokens{}, "", err
	}

	now := time.Now()
	sess := &session.Session{
		SessionID:   sid,
		UserID:      userID,
		Email:       email,
		Role:        r,
		RefreshHash: refresh.Hash(secret),
		CreatedAt:   now.Unix(),
		ExpiresAt:   now.Add(e.config.JWT.RefreshTTL).Unix(),
	}
	if err := e.sessions.Save(ctx, sess, e.config.JWT.RefreshTTL); err != nil {
		return Tokens{}, "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	e.metricInc(MetricSessionCreated)

	tokens, err := e.tokensFor(sess, secret)
	if err != nil {
		return Tokens{}, "", err
	}
	return tokens, sid, nil
}

func (e *Engine) tokensFor(sess *session.Session, secret refresh.Secret) (Tokens, error) {
	access, expiresAt, err := e.jwt.CreateAccess(sess.UserID, sess.SessionID, sess.Role.String(), sess.Email)
	if err != nil {
		return Tokens{}, err
	}
	refreshToken, err := refresh.Encode(sess.SessionID, secret)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresAt:    expiresAt,
		ExpiresIn:    int64(e.jwt.AccessTTL() / time.Second),
	}, nil
}

// Refresh rotates a refresh token. Presenting an already-rotated token
// revokes the whole session.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	sid, secret, err := refresh.Decode(strings.TrimSpace(refreshToken))
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrRefreshInvalid
	}

	next, err := refresh.NewSecret()
	if err != nil {
		return nil, err
	}

	sess, err := e.sessions.RotateRefreshHash(ctx, sid, refresh.Hash(secret), refresh.Hash(next))
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		switch {
		case errors.Is(err, session.ErrRefreshHashMismatch):
			e.metricInc(MetricSessionInvalidated)
			e.emitAudit(ctx, AuditEvent{Kind: AuditRefreshReuse, SessionID: sid})
			return nil, ErrRefreshInvalid
		case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrCorrupt):
			e.emitAudit(ctx, AuditEvent{Kind: AuditRefreshFailure, SessionID: sid, Err: err.Error()})
			return nil, ErrRefreshInvalid
		default:
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	tokens, err := e.tokensFor(sess, next)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, AuditEvent{Kind: AuditRefreshSuccess, UserID: sess.UserID, SessionID: sid, Role: sess.Role})
	return &tokens, nil
}

// Validate checks an access token. In ModeStrict the session must still
// exist, and the stored role is authoritative over the token's claim.
func (e *Engine) Validate(ctx context.Context, accessToken string) (*Identity, error) {
	if e == nil || e.jwt == nil {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	defer func() {
		e.metrics.Observe(MetricResolveLatency, time.Since(start))
	}()

	claims, err := e.jwt.ParseAccess(strings.TrimSpace(accessToken))
	if err != nil {
		return nil, ErrUnauthorized
	}

	id := &Identity{
		UserID:    claims.UID,
		SessionID: claims.SID,
		Email:     claims.Email,
	}
	id.Role = role.Lookup(claims.Role)
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}

	if e.config.ValidationMode == ModeJWTOnly {
		return id, nil
	}

	sess, err := e.sessions.Get(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrCorrupt) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if sess.UserID != claims.UID {
		return nil, ErrUnauthorized
	}
	id.Role = sess.Role
	id.Email = sess.Email
	return id, nil
}

// Resolve implements resolver.IdentitySource.
func (e *Engine) Resolve(ctx context.Context, accessToken string) (resolver.Identity, error) {
	id, err := e.Validate(ctx, accessToken)
	if err != nil {
		return resolver.Identity{}, err
	}
	return resolver.Identity{UserID: id.UserID, Email: id.Email, Role: id.Role}, nil
}

// Revoke implements resolver.Revoker.
func (e *Engine) Revoke(ctx context.Context, accessToken string) error {
	return e.Logout(ctx, accessToken)
}

// Logout deletes the session behind accessToken. Logging out a session that
// is already gone succeeds.
func (e *Engine) Logout(ctx context.Context, accessToken string) error {
	if e == nil || e.jwt == nil {
		return ErrEngineNotReady
	}
	claims, err := e.jwt.ParseAccess(strings.TrimSpace(accessToken))
	if err != nil {
		return ErrUnauthorized
	}
	if err := e.sessions.Delete(ctx, claims.SID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricLogout)
	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, AuditEvent{Kind: AuditLogout, UserID: claims.UID, SessionID: claims.SID, Role: role.Lookup(claims.Role)})
	return nil
}

// LogoutAll deletes every session of userID and returns how many there were.
func (e *Engine) LogoutAll(ctx context.Context, userID string) (int, error) {
	if e == nil || e.sessions == nil {
		return 0, ErrEngineNotReady
	}
	if userID == "" {
		return 0, ErrInvalidRequest
	}
	n, err := e.sessions.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricLogoutAll)
	for i := 0; i < n; i++ {
		e.metricInc(MetricSessionInvalidated)
	}
	e.emitAudit(ctx, AuditEvent{Kind: AuditLogoutAll, UserID: userID, Sessions: n})
	return n, nil
}

// Ping checks the session store.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if e == nil || e.sessions == nil {
		return 0, ErrEngineNotReady
	}
	d, err := e.sessions.Ping(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return d, nil
}
