package audit

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/hrive/hriveauth/role"
)

// Kind names what happened at the access boundary.
type Kind string

const (
	KindLoginSuccess     Kind = "login_success"
	KindLoginFailure     Kind = "login_failure"
	KindLoginRateLimited Kind = "login_rate_limited"
	KindRefreshSuccess   Kind = "refresh_success"
	KindRefreshFailure   Kind = "refresh_failure"
	// KindRefreshReuse is a rotated refresh secret presented again. The
	// session it belonged to has been revoked.
	KindRefreshReuse    Kind = "refresh_reuse"
	KindLogout          Kind = "logout"
	KindLogoutAll       Kind = "logout_all"
	KindSeedUserCreated Kind = "seed_user_created"
	// KindPortalDenied is a signed-in user turned away from a portal their
	// role does not open.
	KindPortalDenied Kind = "portal_denied"
)

// Failure reports whether k records a rejected attempt.
func (k Kind) Failure() bool {
	switch k {
	case KindLoginFailure, KindLoginRateLimited, KindRefreshFailure, KindRefreshReuse, KindPortalDenied:
		return true
	}
	return false
}

// Event is one audit record. Zero fields are left out of the JSON form.
type Event struct {
	At        time.Time
	Kind      Kind
	UserID    string
	SessionID string
	Email     string
	Role      role.Role
	IP        string
	UserAgent string
	// Path is the portal location a guard decision was made for, and
	// Target where the user was sent instead.
	Path     string
	Target   string
	Sessions int
	Err      string
}

type eventJSON struct {
	At        time.Time `json:"at"`
	Kind      Kind      `json:"event"`
	Success   bool      `json:"success"`
	UserID    string    `json:"user_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Path      string    `json:"path,omitempty"`
	Target    string    `json:"target,omitempty"`
	Sessions  int       `json:"sessions,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// MarshalJSON writes the role by wire name and derives success from Kind.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		At:        e.At,
		Kind:      e.Kind,
		Success:   !e.Kind.Failure(),
		UserID:    e.UserID,
		SessionID: e.SessionID,
		Email:     e.Email,
		Role:      e.Role.String(),
		IP:        e.IP,
		UserAgent: e.UserAgent,
		Path:      e.Path,
		Target:    e.Target,
		Sessions:  e.Sessions,
		Error:     e.Err,
	})
}

// Sink receives audit events from the dispatcher goroutine.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// BatchSink is a Sink that can take everything the dispatcher has queued
// in one call.
type BatchSink interface {
	Sink
	EmitBatch(ctx context.Context, events []Event)
}

// NoOpSink drops every event.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink hands events to an in-process consumer.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan Event, buffer)}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes newline-delimited JSON, one batch per Write.
type JSONWriterSink struct {
	mu     sync.Mutex
	writer io.Writer
	buf    bytes.Buffer
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	s.EmitBatch(ctx, []Event{event})
}

func (s *JSONWriterSink) EmitBatch(_ context.Context, events []Event) {
	if s == nil || s.writer == nil || len(events) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Reset()
	enc := json.NewEncoder(&s.buf)
	for _, ev := range events {
		// Encode appends the newline and writes nothing on error.
		_ = enc.Encode(ev)
	}
	_, _ = s.writer.Write(s.buf.Bytes())
}
