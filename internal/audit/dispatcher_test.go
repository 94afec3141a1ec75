package audit

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hrive/hriveauth/role"
)

type blockingSink struct {
	release chan struct{}
	mu      sync.Mutex
	got     []Event
}

func (s *blockingSink) Emit(_ context.Context, e Event) {
	<-s.release
	s.mu.Lock()
	s.got = append(s.got, e)
	s.mu.Unlock()
}

type countingWriter struct {
	writes int
	bytes.Buffer
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	return w.Buffer.Write(p)
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher")
	}
	d.Emit(context.Background(), Event{Kind: KindLogout})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher must report zero drops")
	}
}

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(4)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)
	d.Emit(context.Background(), Event{Kind: KindLoginSuccess})
	d.Emit(context.Background(), Event{Kind: KindLogout})
	d.Close()
	d.Close()
	d.Emit(context.Background(), Event{Kind: KindLogoutAll})

	var kinds []string
	for len(sink.Events()) > 0 {
		kinds = append(kinds, string((<-sink.Events()).Kind))
	}
	if strings.Join(kinds, ",") != "login_success,logout" {
		t.Fatalf("events = %v", kinds)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{Kind: KindPortalDenied})
	}
	deadline := time.Now().Add(time.Second)
	for d.Dropped() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops under backpressure")
	}
	close(sink.release)
	d.Close()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if uint64(len(sink.got))+d.Dropped() != 10 {
		t.Fatalf("delivered %d + dropped %d != 10", len(sink.got), d.Dropped())
	}
}

func TestDispatcherBlockingEmitHonoursContext(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)
	defer func() {
		close(sink.release)
		d.Close()
	}()

	// The worker holds the only slot until the sink returns.
	d.Emit(context.Background(), Event{Kind: KindLoginFailure})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	d.Emit(ctx, Event{Kind: KindLoginFailure})
	if time.Since(start) < 10*time.Millisecond {
		t.Fatal("expected Emit to wait for room")
	}
	if d.Dropped() != 0 {
		t.Fatal("blocking mode must not count drops")
	}
}

func TestJSONWriterSinkWritesBatchOnce(t *testing.T) {
	w := &countingWriter{}
	s := NewJSONWriterSink(w)
	s.EmitBatch(context.Background(), []Event{
		{Kind: KindSeedUserCreated, Role: role.Admin, Email: "ada@hrive.test"},
		{Kind: KindPortalDenied, Role: role.Employee, Path: "/admin", Target: "/employee/dashboard"},
		{Kind: KindLoginSuccess, Role: role.Unknown},
	})

	if w.writes != 1 {
		t.Fatalf("expected one write per batch, got %d", w.writes)
	}
	lines := strings.Split(strings.TrimSuffix(w.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", w.String())
	}
	if !strings.Contains(lines[0], `"event":"seed_user_created"`) || !strings.Contains(lines[0], `"role":"admin"`) || !strings.Contains(lines[0], `"success":true`) {
		t.Fatalf("unexpected line %q", lines[0])
	}
	if !strings.Contains(lines[1], `"success":false`) || !strings.Contains(lines[1], `"path":"/admin"`) {
		t.Fatalf("unexpected line %q", lines[1])
	}
	if !strings.Contains(lines[2], `"role":"unknown"`) {
		t.Fatalf("unexpected line %q", lines[2])
	}
}

func TestDispatcherUsesBatchSink(t *testing.T) {
	w := &countingWriter{}
	sink := NewJSONWriterSink(w)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)
	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{Kind: KindRefreshSuccess})
	}
	d.Close()

	if n := strings.Count(w.String(), "\n"); n != 5 {
		t.Fatalf("expected 5 lines, got %d", n)
	}
	if w.writes > 5 {
		t.Fatalf("expected batched writes, got %d", w.writes)
	}
}
