package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/hrive/hriveauth/guard"
	"github.com/hrive/hriveauth/resolver"
	"github.com/hrive/hriveauth/role"
)

// RequestResolver turns a request token into an identity.
type RequestResolver = resolver.IdentitySource

type sessionContextKey struct{}

// SessionFromContext returns the session of a request the guard let through.
func SessionFromContext(ctx context.Context) (guard.Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(guard.Session)
	return s, ok
}

// Guard protects next with g.
func Guard(res RequestResolver, g *guard.Guard, opts ...Option) func(http.Handler) http.Handler {
	o := newOptions(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := resolveRequest(r, res, o)
			d := g.Evaluate(session, r.URL.RequestURI())
			if o.observe != nil {
				o.observe(r, d)
			}

			switch d.Outcome {
			case guard.OutcomeRender:
				ctx := context.WithValue(r.Context(), sessionContextKey{}, session)
				next.ServeHTTP(w, r.WithContext(ctx))
			case guard.OutcomeLoading:
				if wantsJSON(r) {
					writeDecision(w, http.StatusOK, d)
					return
				}
				o.loading.ServeHTTP(w, r)
			default:
				o.logger.DebugContext(r.Context(), "guard redirect",
					slog.String("path", r.URL.Path),
					slog.String("target", d.Target),
					slog.String("reason", d.Reason.String()),
				)
				if wantsJSON(r) {
					writeDecision(w, redirectStatus(d), d)
					return
				}
				http.Redirect(w, r, RedirectURL(d), http.StatusSeeOther)
			}
		})
	}
}

func resolveRequest(r *http.Request, res RequestResolver, o options) guard.Session {
	token := requestToken(r, o.cookieName)
	if token == "" {
		return guard.Session{}
	}

	ctx := r.Context()
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	return resolver.ResolveOnce(ctx, res, token)
}

func requestToken(r *http.Request, cookieName string) string {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

// RedirectURL is the Location for a redirect decision. Sign-in redirects
// carry the original location in the redirect query parameter.
func RedirectURL(d guard.Decision) string {
	if d.ReturnTo == "" {
		return d.Target
	}
	return d.Target + "?redirect=" + url.QueryEscape(d.ReturnTo)
}

func redirectStatus(d guard.Decision) int {
	if d.Target == role.SignInPath {
		return http.StatusUnauthorized
	}
	return http.StatusForbidden
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

type decisionState struct {
	From string `json:"from,omitempty"`
}

type decisionBody struct {
	Outcome string         `json:"outcome"`
	Reason  string         `json:"reason"`
	Target  string         `json:"target,omitempty"`
	Replace bool           `json:"replace,omitempty"`
	State   *decisionState `json:"state,omitempty"`
}

func writeDecision(w http.ResponseWriter, status int, d guard.Decision) {
	body := decisionBody{
		Outcome: d.Outcome.String(),
		Reason:  d.Reason.String(),
		Target:  d.Target,
		Replace: d.Replace,
	}
	if d.ReturnTo != "" {
		body.State = &decisionState{From: d.ReturnTo}
	}
	data, err := json.Marshal(body)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
