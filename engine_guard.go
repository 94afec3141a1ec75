package hriveauth

import (
	"context"
	"net/http"

	"github.com/hrive/hriveauth/guard"
	"github.com/hrive/hriveauth/role"
)

// ObserveDecision counts a route-guard decision and audits wrong-portal
// redirects. Its signature matches middleware.WithObserver.
func (e *Engine) ObserveDecision(r *http.Request, d guard.Decision) {
	switch {
	case d.Outcome == guard.OutcomeLoading:
		e.metricInc(MetricGuardLoading)
	case d.Outcome == guard.OutcomeRender:
		e.metricInc(MetricGuardRender)
	case d.Target == role.SignInPath:
		e.metricInc(MetricGuardRedirectSignIn)
	default:
		e.metricInc(MetricGuardRedirectHome)

		ctx := context.Background()
		ev := AuditEvent{Kind: AuditPortalDenied, Target: d.Target, Role: roleForHome(d.Target)}
		if r != nil {
			ctx = r.Context()
			ev.Path = r.URL.Path
		}
		e.emitAudit(ctx, ev)
	}
}

// roleForHome inverts role.HomePath for the four portal roles.
func roleForHome(path string) role.Role {
	for _, r := range role.All() {
		if role.HomePath(r) == path {
			return r
		}
	}
	return role.None
}
