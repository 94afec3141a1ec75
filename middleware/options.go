package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hrive/hriveauth/guard"
)

// DefaultCookieName carries the access token for browser requests.
const DefaultCookieName = "hrive_access"

// Option configures Guard and GinGuard.
type Option func(*options)

type options struct {
	cookieName string
	timeout    time.Duration
	loading    http.Handler
	logger     *slog.Logger
	observe    func(*http.Request, guard.Decision)
}

func newOptions(opts []Option) options {
	o := options{
		cookieName: DefaultCookieName,
		timeout:    2 * time.Second,
		loading:    http.HandlerFunc(defaultLoading),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithCookieName changes the cookie read when no Authorization header is sent.
func WithCookieName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.cookieName = name
		}
	}
}

// WithTimeout bounds session resolution. Requests that run out of time get
// the loading placeholder.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithLoading replaces the loading placeholder.
func WithLoading(h http.Handler) Option {
	return func(o *options) {
		if h != nil {
			o.loading = h
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver is called with every decision before it is applied.
func WithObserver(fn func(*http.Request, guard.Decision)) Option {
	return func(o *options) {
		o.observe = fn
	}
}

func defaultLoading(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Retry-After", "1")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte("loading"))
}
