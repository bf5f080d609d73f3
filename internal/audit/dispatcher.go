package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Dispatcher keeps sink latency off the authentication hot path: Emit queues
// the event and a single worker goroutine feeds the sink in arrival order.
// Enablement is the caller's decision; a nil *Dispatcher is a valid disabled
// one and all its methods are no-ops.
type Dispatcher struct {
	sink       Sink
	queue      chan Event
	dropIfFull bool

	dropped atomic.Uint64
	closing atomic.Bool
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewDispatcher starts the worker. buffer is clamped to at least one slot; a
// nil sink discards events.
func NewDispatcher(sink Sink, buffer int, dropIfFull bool) *Dispatcher {
	if sink == nil {
		sink = NoOpSink{}
	}
	if buffer < 1 {
		buffer = 1
	}

	d := &Dispatcher{
		sink:       sink,
		queue:      make(chan Event, buffer),
		dropIfFull: dropIfFull,
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	go d.work()
	return d
}

func (d *Dispatcher) work() {
	defer close(d.stopped)
	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		case <-d.quit:
			d.flush()
			return
		}
	}
}

// flush delivers whatever was already queued when shutdown began.
func (d *Dispatcher) flush() {
	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		default:
			return
		}
	}
}

// Emit queues event for delivery. In drop-if-full mode a full queue records a
// drop instead of blocking; otherwise Emit waits until the queue accepts the
// event, ctx ends, or the dispatcher shuts down.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closing.Load() {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.queue <- event:
	case <-ctx.Done():
	case <-d.quit:
	}
}

// Close stops accepting events, flushes the queue, and waits for the worker.
// Safe to call repeatedly.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closing.Store(true)
		close(d.quit)
	})
	<-d.stopped
}

// Dropped reports how many events drop-if-full mode discarded.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
