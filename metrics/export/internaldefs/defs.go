package internaldefs

import (
	"github.com/hrive/hriveauth"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   hriveauth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram.
type HistogramDef struct {
	ID   hriveauth.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "hrive_audit_dropped_total"

var CounterDefs = []CounterDef{
	{ID: hriveauth.MetricLoginSuccess, Name: "hrive_login_success_total", Help: "Successful portal sign-ins."},
	{ID: hriveauth.MetricLoginFailure, Name: "hrive_login_failure_total", Help: "Sign-ins rejected for bad credentials."},
	{ID: hriveauth.MetricLoginRateLimited, Name: "hrive_login_rate_limited_total", Help: "Sign-ins refused by the login limiter."},
	{ID: hriveauth.MetricRefreshSuccess, Name: "hrive_refresh_success_total", Help: "Refresh tokens rotated."},
	{ID: hriveauth.MetricRefreshFailure, Name: "hrive_refresh_failure_total", Help: "Refresh attempts rejected."},
	{ID: hriveauth.MetricSessionCreated, Name: "hrive_session_created_total", Help: "Sessions opened."},
	{ID: hriveauth.MetricSessionInvalidated, Name: "hrive_session_invalidated_total", Help: "Sessions revoked by logout or refresh reuse."},
	{ID: hriveauth.MetricLogout, Name: "hrive_logout_total", Help: "Single-session logouts."},
	{ID: hriveauth.MetricLogoutAll, Name: "hrive_logout_all_total", Help: "Logout-everywhere operations."},
	{ID: hriveauth.MetricGuardRender, Name: "hrive_guard_render_total", Help: "Guarded routes rendered."},
	{ID: hriveauth.MetricGuardLoading, Name: "hrive_guard_loading_total", Help: "Guarded routes answered with the loading placeholder."},
	{ID: hriveauth.MetricGuardRedirectSignIn, Name: "hrive_guard_redirect_signin_total", Help: "Guarded routes redirected to sign-in."},
	{ID: hriveauth.MetricGuardRedirectHome, Name: "hrive_guard_redirect_home_total", Help: "Guarded routes redirected to the caller's role home."},
	{ID: hriveauth.MetricSeedUserCreated, Name: "hrive_seed_user_created_total", Help: "Test users created by seeding."},
	{ID: hriveauth.MetricSeedUserExisting, Name: "hrive_seed_user_existing_total", Help: "Seeded test users that already existed."},
}

var HistogramDefs = []HistogramDef{
	{ID: hriveauth.MetricResolveLatency, Name: "hrive_resolve_latency_seconds", Help: "Access token resolution latency."},
}

// HistogramBounds are the Prometheus le labels, matching the engine's
// 5ms..500ms buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds in instrument-name-safe form.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
