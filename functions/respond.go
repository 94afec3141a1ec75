package functions

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/hrive/hriveauth"
)

const allowHeaders = "authorization, x-client-info, apikey, content-type, x-seed-token"

type envelope struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	data, err := json.Marshal(body)
	if err != nil {
		http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Error: msg})
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, hriveauth.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, hriveauth.ErrInvalidCredentials),
		errors.Is(err, hriveauth.ErrUnauthorized),
		errors.Is(err, hriveauth.ErrSessionNotFound),
		errors.Is(err, hriveauth.ErrRefreshInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, hriveauth.ErrSeedDisabled):
		return http.StatusForbidden
	case errors.Is(err, hriveauth.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, hriveauth.ErrLoginRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, hriveauth.ErrInvalidCredentials):
		return "Invalid login credentials"
	case errors.Is(err, hriveauth.ErrLoginRateLimited):
		return "Too many login attempts, try again later"
	case errors.Is(err, hriveauth.ErrSeedDisabled):
		return "Test user seeding is disabled"
	case statusFor(err) == http.StatusInternalServerError:
		return "Internal server error"
	default:
		return err.Error()
	}
}

func fail(w http.ResponseWriter, r *http.Request, cfg Config, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		cfg.logger().ErrorContext(r.Context(), "function failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
	writeError(w, status, messageFor(err))
}

// preflight writes CORS headers and reports whether the request is fully
// handled (an OPTIONS preflight) or must use method.
func preflight(w http.ResponseWriter, r *http.Request, cfg Config, method string) bool {
	setCORS(w, r, cfg, method)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
		return true
	}
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return true
	}
	return false
}

func setCORS(w http.ResponseWriter, r *http.Request, cfg Config, method string) {
	h := w.Header()
	origin := r.Header.Get("Origin")
	switch {
	case slices.Contains(cfg.AllowedOrigins, "*"):
		h.Set("Access-Control-Allow-Origin", "*")
	case origin != "" && slices.Contains(cfg.AllowedOrigins, origin):
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")
	}
	h.Set("Access-Control-Allow-Headers", allowHeaders)
	h.Set("Access-Control-Allow-Methods", method+", OPTIONS")
}

// decodeBody reads a JSON object into v. Any failure is ErrInvalidRequest.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return hriveauth.ErrInvalidRequest
	}
	if err := json.Unmarshal(body, v); err != nil {
		return hriveauth.ErrInvalidRequest
	}
	return nil
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func requestContext(r *http.Request) *http.Request {
	ctx := hriveauth.WithClientIP(r.Context(), clientIP(r))
	ctx = hriveauth.WithUserAgent(ctx, r.UserAgent())
	return r.WithContext(ctx)
}

func bearerToken(r *http.Request, cookieName string) string {
	const bearer = "Bearer "
	if v := r.Header.Get("Authorization"); len(v) > len(bearer) && strings.EqualFold(v[:len(bearer)], bearer) {
		return strings.TrimSpace(v[len(bearer):])
	}
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil {
			return c.Value
		}
	}
	return ""
}
