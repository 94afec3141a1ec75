package functions

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/hrive/hriveauth"
)

// Authenticator signs users in. *hriveauth.Engine implements it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*hriveauth.LoginResult, error)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionBody struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
}

type userBody struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Role         string         `json:"role,omitempty"`
	UserMetadata map[string]any `json:"user_metadata"`
	AppMetadata  map[string]any `json:"app_metadata"`
}

type loginBody struct {
	Session sessionBody `json:"session"`
	User    userBody    `json:"user"`
	Role    *string     `json:"role"`
}

// Login handles POST {email, password}. On success it answers 200 with
// {data: {session, user, role}}; role is null when the account has no
// recognized portal role.
func Login(auth Authenticator, cfg Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, cfg, http.MethodPost) {
			return
		}

		var req loginRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "Email and password are required")
			return
		}

		r = requestContext(r)
		res, err := auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			fail(w, r, cfg, err)
			return
		}

		if cfg.SetCookies {
			setSessionCookies(w, cfg, res.Tokens)
		}
		writeData(w, loginBody{
			Session: sessionOf(res.Tokens),
			User: userBody{
				ID:           res.User.ID,
				Email:        res.User.Email,
				Role:         res.User.Role,
				UserMetadata: nonNil(res.User.UserMetadata),
				AppMetadata:  nonNil(res.User.AppMetadata),
			},
			Role: roleName(res),
		})
	})
}

func roleName(res *hriveauth.LoginResult) *string {
	if !res.Role.Valid() {
		return nil
	}
	name := res.Role.String()
	return &name
}

func sessionOf(t hriveauth.Tokens) sessionBody {
	return sessionBody{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		ExpiresIn:    t.ExpiresIn,
		ExpiresAt:    t.ExpiresAt.Unix(),
	}
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func setSessionCookies(w http.ResponseWriter, cfg Config, t hriveauth.Tokens) {
	if cfg.AccessCookieName != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     cfg.AccessCookieName,
			Value:    t.AccessToken,
			Path:     "/",
			MaxAge:   int(t.ExpiresIn),
			Expires:  t.ExpiresAt,
			HttpOnly: true,
			Secure:   cfg.SecureCookies,
			SameSite: cfg.SameSite,
		})
	}
	if cfg.RefreshCookieName != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     cfg.RefreshCookieName,
			Value:    t.RefreshToken,
			Path:     "/api",
			HttpOnly: true,
			Secure:   cfg.SecureCookies,
			SameSite: cfg.SameSite,
		})
	}
}

func clearSessionCookies(w http.ResponseWriter, cfg Config) {
	for name, path := range map[string]string{cfg.AccessCookieName: "/", cfg.RefreshCookieName: "/api"} {
		if name == "" {
			continue
		}
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     path,
			MaxAge:   -1,
			Expires:  cfg.now().Add(-time.Hour),
			HttpOnly: true,
			Secure:   cfg.SecureCookies,
			SameSite: cfg.SameSite,
		})
	}
}
