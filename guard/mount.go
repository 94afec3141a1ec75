package guard

import "sync"

// Source is a subscribable session, typically a *resolver.Provider.
type Source interface {
	Snapshot() Session
	Subscribe(fn func(Session)) (unsubscribe func())
}

// Mounted is a guard bound to a session source for the lifetime of a view.
type Mounted struct {
	guard   *Guard
	src     Source
	deliver func(Decision)

	mu       sync.Mutex
	idle     *sync.Cond
	path     string
	session  Session
	last     Decision
	hasLast  bool
	closed   bool
	queue    []Decision
	draining bool

	unsubscribe func()
}

// Mount subscribes g to src and delivers the initial decision for path
// before returning.
//
// Decisions are delivered in order, one at a time, outside the view's lock.
// deliver may call Navigate to apply a redirect; the new decision is
// delivered after deliver returns. deliver must not call Unmount.
func Mount(src Source, g *Guard, path string, deliver func(Decision)) *Mounted {
	m := &Mounted{
		guard:   g,
		src:     src,
		deliver: deliver,
		path:    path,
	}
	m.idle = sync.NewCond(&m.mu)

	m.mu.Lock()
	m.unsubscribe = src.Subscribe(m.onSession)
	m.session = src.Snapshot()
	m.evaluateLocked()
	m.drainLocked()
	return m
}

// onSession re-reads the source so a notification overtaken by a newer one
// never rolls the view back to a stale session.
func (m *Mounted) onSession(Session) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.session = m.src.Snapshot()
	m.evaluateLocked()
	m.drainLocked()
}

// Navigate moves the view to path and re-evaluates.
func (m *Mounted) Navigate(path string) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.path = path
	m.evaluateLocked()
	m.drainLocked()
}

// Decision returns the most recent decision.
func (m *Mounted) Decision() Decision {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Unmount detaches the view. Queued decisions are discarded, and a delivery
// already running finishes before Unmount returns. Unmount is idempotent.
func (m *Mounted) Unmount() {
	m.mu.Lock()
	if m.closed {
		for m.draining {
			m.idle.Wait()
		}
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.queue = nil
	unsubscribe := m.unsubscribe
	for m.draining {
		m.idle.Wait()
	}
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// evaluateLocked queues the current decision. Duplicates are suppressed so a
// token refresh that keeps the same user and role does not re-redirect.
func (m *Mounted) evaluateLocked() {
	d := m.guard.Evaluate(m.session, m.path)
	if m.hasLast && d.Equal(m.last) {
		return
	}
	m.last = d
	m.hasLast = true
	m.queue = append(m.queue, d)
}

// drainLocked delivers queued decisions and releases m.mu. Only one
// goroutine drains at a time; others leave their decision in the queue.
func (m *Mounted) drainLocked() {
	if m.draining || m.deliver == nil {
		if m.deliver == nil {
			m.queue = nil
		}
		m.mu.Unlock()
		return
	}
	m.draining = true
	for len(m.queue) > 0 && !m.closed {
		d := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		m.deliver(d)
		m.mu.Lock()
	}
	m.queue = nil
	m.draining = false
	m.idle.Broadcast()
	m.mu.Unlock()
}
