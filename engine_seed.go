package hriveauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/hrive/hriveauth/directory"
	"github.com/hrive/hriveauth/password"
	"github.com/hrive/hriveauth/role"
)

// CreateUser adds an account with the given portal role. The role is
// written to both the top-level field and user metadata so every lookup
// path agrees on it.
func (e *Engine) CreateUser(ctx context.Context, u SeedUser) (UserProfile, error) {
	if e == nil || e.users == nil {
		return UserProfile{}, ErrEngineNotReady
	}

	r, ok := role.Parse(u.Role)
	if !ok {
		return UserProfile{}, fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, u.Role)
	}
	email := directory.NormalizeEmail(u.Email)
	if email == "" {
		return UserProfile{}, fmt.Errorf("%w: email required", ErrInvalidRequest)
	}

	hash, err := e.hasher.Hash(u.Password)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooShort) || errors.Is(err, password.ErrPasswordTooLong) {
			return UserProfile{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return UserProfile{}, err
	}

	userMeta := map[string]any{"role": r.String()}
	if u.FullName != "" {
		userMeta["full_name"] = u.FullName
	}

	created, err := e.users.Create(ctx, directory.User{
		Email:        email,
		PasswordHash: hash,
		Role:         r.String(),
		UserMetadata: userMeta,
		AppMetadata:  map[string]any{"provider": "email"},
	})
	if err != nil {
		if errors.Is(err, directory.ErrUserExists) {
			return UserProfile{}, ErrUserExists
		}
		return UserProfile{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return profileOf(created), nil
}

// SeedUsers creates each user that does not exist yet. It stops at the
// first directory failure and returns what it managed so far.
func (e *Engine) SeedUsers(ctx context.Context, users []SeedUser) (*SeedResult, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	result := &SeedResult{Created: []string{}, Existing: []string{}}
	for _, u := range users {
		profile, err := e.CreateUser(ctx, u)
		switch {
		case err == nil:
			result.Created = append(result.Created, profile.Email)
			e.metricInc(MetricSeedUserCreated)
			e.emitAudit(ctx, AuditEvent{Kind: AuditSeedUserCreated, UserID: profile.ID, Email: profile.Email, Role: role.Lookup(profile.Role)})
		case errors.Is(err, ErrUserExists):
			result.Existing = append(result.Existing, directory.NormalizeEmail(u.Email))
			e.metricInc(MetricSeedUserExisting)
		default:
			return result, err
		}
	}
	return result, nil
}

// SeedTestUsers creates the configured portal test accounts. Calling it
// again reports the accounts as existing.
func (e *Engine) SeedTestUsers(ctx context.Context) (*SeedResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if !e.config.Seed.Enabled {
		return nil, ErrSeedDisabled
	}
	return e.SeedUsers(ctx, e.config.Seed.Users)
}
