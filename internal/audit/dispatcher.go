package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering.
type Config struct {
	Enabled bool
	// BufferSize bounds how many events may wait for the sink.
	BufferSize int
	// DropIfFull drops (and counts) events when the buffer is full instead
	// of making the request path wait.
	DropIfFull bool
}

// Dispatcher moves events off the request path. Emit queues; a single
// worker hands whatever has queued to the sink, as one batch when the sink
// is a BatchSink. A nil *Dispatcher is valid and drops everything.
type Dispatcher struct {
	sink       Sink
	dropIfFull bool

	// slots holds one token per queued event and bounds the queue.
	slots chan struct{}
	wake  chan struct{}
	done  chan struct{}
	exit  chan struct{}

	mu      sync.Mutex
	queue   []Event
	stopped bool

	dropped atomic.Uint64
	once    sync.Once
}

// NewDispatcher starts a dispatcher, or returns nil when auditing is disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		slots:      make(chan struct{}, cfg.BufferSize),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
		exit:       make(chan struct{}),
	}
	go d.run()
	return d
}

// Emit queues event. With DropIfFull a full buffer drops it; otherwise Emit
// waits for room, for ctx, or for Close.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.dropIfFull {
		select {
		case d.slots <- struct{}{}:
		default:
			d.dropped.Add(1)
			return
		}
	} else {
		select {
		case d.slots <- struct{}{}:
		case <-ctx.Done():
			return
		case <-d.done:
			return
		}
	}

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		<-d.slots
		return
	}
	d.queue = append(d.queue, event)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) run() {
	defer close(d.exit)
	for {
		select {
		case <-d.wake:
			d.flush()
		case <-d.done:
			d.flush()
			return
		}
	}
}

// flush delivers everything queued so far and frees its slots.
func (d *Dispatcher) flush() {
	d.mu.Lock()
	batch := d.queue
	d.queue = nil
	d.mu.Unlock()
	if len(batch) == 0 {
		return
	}

	ctx := context.Background()
	if bs, ok := d.sink.(BatchSink); ok {
		bs.EmitBatch(ctx, batch)
	} else {
		for _, ev := range batch {
			d.sink.Emit(ctx, ev)
		}
	}
	for range batch {
		<-d.slots
	}
}

// Close delivers queued events and stops the worker. Events emitted after
// Close are discarded. It is idempotent.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.mu.Lock()
		d.stopped = true
		d.mu.Unlock()
		close(d.done)
		<-d.exit
	})
}

// Dropped returns how many events were discarded for backpressure.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
