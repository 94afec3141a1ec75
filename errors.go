package hriveauth

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	// The two cases are indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginRateLimited is returned once an email or client IP exhausts its login budget.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrUnauthorized is returned for missing, expired, or revoked access tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSessionNotFound is returned when the session behind a token no longer exists.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshInvalid is returned for malformed, unknown, or replayed refresh tokens.
	ErrRefreshInvalid = errors.New("refresh token invalid")
	// ErrEngineNotReady is returned when a nil or partially built Engine is used.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrUserExists is returned when creating an account whose email is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrSeedDisabled is returned by SeedTestUsers when seeding is switched off.
	ErrSeedDisabled = errors.New("test user seeding disabled")
	// ErrStoreUnavailable wraps Redis and directory failures.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidRequest is returned for empty or malformed caller input.
	ErrInvalidRequest = errors.New("invalid request")
)
