package functions

import (
	"context"
	"net/http"
	"strings"

	"github.com/hrive/hriveauth"
	"github.com/hrive/hriveauth/guard"
	"github.com/hrive/hriveauth/resolver"
	"github.com/hrive/hriveauth/role"
)

// Refresher rotates refresh tokens. *hriveauth.Engine implements it.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*hriveauth.Tokens, error)
}

// LogoutEngine ends sessions. *hriveauth.Engine implements it.
type LogoutEngine interface {
	Logout(ctx context.Context, accessToken string) error
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST {refresh_token}. The refresh cookie is used when the
// body carries no token.
func Refresh(ref Refresher, cfg Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, cfg, http.MethodPost) {
			return
		}

		var req refreshRequest
		if r.ContentLength != 0 {
			if err := decodeBody(w, r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
		}
		token := strings.TrimSpace(req.RefreshToken)
		if token == "" && cfg.RefreshCookieName != "" {
			if c, err := r.Cookie(cfg.RefreshCookieName); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			writeError(w, http.StatusBadRequest, "refresh_token is required")
			return
		}

		r = requestContext(r)
		tokens, err := ref.Refresh(r.Context(), token)
		if err != nil {
			if cfg.SetCookies && statusFor(err) == http.StatusUnauthorized {
				clearSessionCookies(w, cfg)
			}
			fail(w, r, cfg, err)
			return
		}

		if cfg.SetCookies {
			setSessionCookies(w, cfg, *tokens)
		}
		writeData(w, struct {
			Session sessionBody `json:"session"`
		}{Session: sessionOf(*tokens)})
	})
}

// Logout handles POST with a bearer token or the access cookie.
func Logout(out LogoutEngine, cfg Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, cfg, http.MethodPost) {
			return
		}

		token := bearerToken(r, cfg.AccessCookieName)
		if token == "" {
			writeError(w, http.StatusUnauthorized, hriveauth.ErrUnauthorized.Error())
			return
		}

		r = requestContext(r)
		if cfg.SetCookies {
			clearSessionCookies(w, cfg)
		}
		if err := out.Logout(r.Context(), token); err != nil {
			fail(w, r, cfg, err)
			return
		}
		writeData(w, struct {
			LoggedOut bool `json:"logged_out"`
		}{LoggedOut: true})
	})
}

type sessionStateBody struct {
	State string      `json:"state"`
	User  *guard.User `json:"user"`
	Role  *string     `json:"role"`
	Home  string      `json:"home"`
}

// Session handles GET and reports who the caller is and where their portal
// lives. Anonymous callers get state "unauthenticated", not an error.
func Session(res resolver.IdentitySource, cfg Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, cfg, http.MethodGet) {
			return
		}

		s := resolver.ResolveOnce(r.Context(), res, bearerToken(r, cfg.AccessCookieName))
		body := sessionStateBody{
			State: guard.StateOf(s).String(),
			User:  s.User,
			Home:  role.SignInPath,
		}
		if s.Authenticated() {
			body.Home = role.HomePath(s.Role)
			if s.Role.Valid() {
				name := s.Role.String()
				body.Role = &name
			}
		}
		writeData(w, body)
	})
}
