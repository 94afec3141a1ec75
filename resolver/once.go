package resolver

import (
	"context"
	"errors"

	"github.com/hrive/hriveauth/guard"
)

// ResolveOnce resolves token synchronously. An empty token or a failed
// resolution is unauthenticated, except that running out of time leaves the
// session pending so the caller can render its loading placeholder.
func ResolveOnce(ctx context.Context, source IdentitySource, token string) guard.Session {
	if token == "" || source == nil {
		return guard.Session{}
	}

	id, err := source.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return guard.Session{Loading: true}
		}
		return guard.Session{}
	}
	return sessionFor(id)
}
