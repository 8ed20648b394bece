package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull discards events when the queue is full instead of blocking
	// the request that produced them.
	DropIfFull bool
	// Enrich copies request-scoped fields (request ID, client IP) from the
	// emitting context onto the event before it is queued.
	Enrich func(ctx context.Context, event *Event)
	Now    func() time.Time
}

// Dispatcher queues events on the request path and delivers them to a sink
// from a single goroutine, so sinks see events in emit order.
type Dispatcher struct {
	cfg   Config
	sink  Sink
	queue chan Event

	// mu orders Emit against Close: no send happens after the queue closes.
	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	dropped  map[Kind]*atomic.Uint64
	panicked atomic.Uint64
}

// NewDispatcher returns nil when cfg.Enabled is false; a nil Dispatcher
// accepts and ignores every call.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:     cfg,
		sink:    sink,
		queue:   make(chan Event, cfg.BufferSize),
		done:    make(chan struct{}),
		dropped: make(map[Kind]*atomic.Uint64, len(Kinds)),
	}
	for _, k := range Kinds {
		d.dropped[k] = new(atomic.Uint64)
	}

	go d.deliver()
	return d
}

func (d *Dispatcher) deliver() {
	defer close(d.done)
	for event := range d.queue {
		d.emitSafely(event)
	}
}

// emitSafely keeps one faulty sink call from stopping delivery.
func (d *Dispatcher) emitSafely(event Event) {
	defer func() {
		if recover() != nil {
			d.panicked.Add(1)
		}
	}()
	d.sink.Emit(context.Background(), event)
}

// Emit stamps, enriches and queues event. With DropIfFull unset it blocks
// until there is room or ctx is done.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if _, known := d.dropped[event.Kind]; !known {
		event.Kind = KindOther
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = d.cfg.Now().UTC()
	}
	if event.Stage == "" {
		event.Stage = event.Kind.Stage()
	}
	if d.cfg.Enrich != nil {
		d.cfg.Enrich(ctx, &event)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.cfg.DropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped[event.Kind].Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.dropped[event.Kind].Add(1)
	}
}

// Close stops intake and waits until every queued event reached the sink.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}

// Dropped is the total of DroppedByKind.
func (d *Dispatcher) Dropped() uint64 {
	var total uint64
	for _, n := range d.DroppedByKind() {
		total += n
	}
	return total
}

// DroppedByKind returns drop counts for every Kind, zeros included.
func (d *Dispatcher) DroppedByKind() map[Kind]uint64 {
	out := make(map[Kind]uint64, len(Kinds))
	for _, k := range Kinds {
		out[k] = 0
	}
	if d == nil {
		return out
	}
	for k, n := range d.dropped {
		out[k] = n.Load()
	}
	return out
}

// SinkPanics counts sink calls that panicked.
func (d *Dispatcher) SinkPanics() uint64 {
	if d == nil {
		return 0
	}
	return d.panicked.Load()
}
