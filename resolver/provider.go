package resolver

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hrive/hriveauth/guard"
	"github.com/hrive/hriveauth/role"
)

// ErrClosed is returned by Wait when the provider closed before the session
// resolved.
var ErrClosed = errors.New("resolver: provider closed")

// Identity is what an IdentitySource knows about a token's holder.
type Identity struct {
	UserID string
	Email  string
	Role   role.Role
}

// IdentitySource validates a token. *hriveauth.Engine implements it.
type IdentitySource interface {
	Resolve(ctx context.Context, token string) (Identity, error)
}

// SourceFunc adapts a function to IdentitySource.
type SourceFunc func(ctx context.Context, token string) (Identity, error)

func (f SourceFunc) Resolve(ctx context.Context, token string) (Identity, error) {
	return f(ctx, token)
}

// Revoker is implemented by sources that can end a session server-side.
// Provider.SignOut calls it with the current token when available.
type Revoker interface {
	Revoke(ctx context.Context, token string) error
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger used for resolution failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTimeout bounds each resolution. Zero means no bound beyond the
// caller's context.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.timeout = d
	}
}

// Provider owns one client session. It is safe for concurrent use.
type Provider struct {
	source  IdentitySource
	logger  *slog.Logger
	timeout time.Duration

	mu          sync.Mutex
	session     guard.Session
	token       string
	started     bool
	closed      bool
	generation  uint64
	cancel      context.CancelFunc
	resolved    chan struct{}
	subscribers map[uint64]func(guard.Session)
	nextSub     uint64
}

// NewProvider returns a pending Provider backed by source.
func NewProvider(source IdentitySource, opts ...Option) *Provider {
	p := &Provider{
		source:      source,
		logger:      slog.Default(),
		session:     guard.Session{Loading: true},
		resolved:    make(chan struct{}),
		subscribers: make(map[uint64]func(guard.Session)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins the initial resolution of token. Only the first call has
// any effect; use SignIn or Refresh to resolve again.
func (p *Provider) Start(ctx context.Context, token string) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	p.begin(ctx, token)
}

// SignIn returns the provider to pending and resolves token.
func (p *Provider) SignIn(ctx context.Context, token string) {
	p.markStarted()
	p.begin(ctx, token)
}

// Refresh re-resolves with a rotated token.
func (p *Provider) Refresh(ctx context.Context, token string) {
	p.markStarted()
	p.begin(ctx, token)
}

// SignOut drops the session immediately. If the source is a Revoker the
// server-side session is revoked too; revocation errors are only logged.
func (p *Provider) SignOut(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.generation++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	token := p.token
	p.token = ""
	subs := p.settleLocked(guard.Session{})
	p.mu.Unlock()

	notify(subs, guard.Session{})

	if revoker, ok := p.source.(Revoker); ok && token != "" {
		if err := revoker.Revoke(ctx, token); err != nil {
			p.logger.WarnContext(ctx, "session revoke failed", slog.Any("error", err))
		}
	}
}

// Snapshot returns the current session.
func (p *Provider) Snapshot() guard.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copySession(p.session)
}

// Subscribe registers fn for every session change. Notifications run
// outside the provider's lock and may be delivered concurrently, so fn
// should read Snapshot when ordering matters.
func (p *Provider) Subscribe(fn func(guard.Session)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subscribers[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subscribers, id)
			p.mu.Unlock()
		})
	}
}

// Wait blocks until the session is no longer pending or ctx ends.
func (p *Provider) Wait(ctx context.Context) (guard.Session, error) {
	for {
		p.mu.Lock()
		if !p.session.Loading {
			s := copySession(p.session)
			p.mu.Unlock()
			return s, nil
		}
		if p.closed {
			p.mu.Unlock()
			return guard.Session{Loading: true}, ErrClosed
		}
		ch := p.resolved
		p.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return guard.Session{Loading: true}, ctx.Err()
		}
	}
}

// Close cancels any in-flight resolution, drops all subscribers, and
// releases Wait callers with ErrClosed if the session is still pending.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.generation++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.subscribers = map[uint64]func(guard.Session){}
	if p.session.Loading {
		close(p.resolved)
	}
}

func (p *Provider) markStarted() {
	p.mu.Lock()
	p.started = true
	p.mu.Unlock()
}

func (p *Provider) begin(ctx context.Context, token string) {
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.generation++
	gen := p.generation
	if p.cancel != nil {
		p.cancel()
	}
	rctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.token = token

	var subs []func(guard.Session)
	if !p.session.Loading {
		p.session = guard.Session{Loading: true}
		p.resolved = make(chan struct{})
		subs = p.subscriberListLocked()
	}
	p.mu.Unlock()

	notify(subs, guard.Session{Loading: true})

	go p.run(rctx, cancel, gen, token)
}

func (p *Provider) run(ctx context.Context, cancel context.CancelFunc, gen uint64, token string) {
	defer cancel()

	if token == "" {
		p.settle(gen, guard.Session{})
		return
	}

	if p.timeout > 0 {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, p.timeout)
		defer tcancel()
	}

	id, err := p.source.Resolve(ctx, token)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.logger.WarnContext(ctx, "session resolution failed", slog.Any("error", err))
		}
		p.settle(gen, guard.Session{})
		return
	}
	p.settle(gen, sessionFor(id))
}

func (p *Provider) settle(gen uint64, s guard.Session) {
	p.mu.Lock()
	if p.closed || gen != p.generation {
		p.mu.Unlock()
		return
	}
	p.cancel = nil
	subs := p.settleLocked(s)
	p.mu.Unlock()

	notify(subs, s)
}

func (p *Provider) settleLocked(s guard.Session) []func(guard.Session) {
	if p.session.Loading {
		close(p.resolved)
	}
	p.session = s
	return p.subscriberListLocked()
}

func (p *Provider) subscriberListLocked() []func(guard.Session) {
	subs := make([]func(guard.Session), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(guard.Session), s guard.Session) {
	for _, fn := range subs {
		fn(copySession(s))
	}
}

func sessionFor(id Identity) guard.Session {
	return guard.Session{
		User: &guard.User{ID: id.UserID, Email: id.Email},
		Role: id.Role,
	}
}

func copySession(s guard.Session) guard.Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
