package events

import (
	"sync"
	"time"
)

// Listener consumes emitted events. Implementations must not block; slow
// consumers should buffer internally.
type Listener interface {
	OnEvent(event *Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(event *Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(event *Event) { f(event) }

// Emitter fans events out to registered listeners. Safe for concurrent use;
// tool executions emit from multiple goroutines within one round.
type Emitter struct {
	mu        sync.RWMutex
	listeners []Listener
	traceID   string
}

// NewEmitter creates an emitter with no listeners.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// WithTrace returns a child emitter stamping traceID on every event. The
// child shares the parent's listener set.
func (e *Emitter) WithTrace(traceID string) *Emitter {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return &Emitter{listeners: e.listeners, traceID: traceID}
}

// AddListener registers a listener.
func (e *Emitter) AddListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Emit wraps data into an Event and delivers it to all listeners.
func (e *Emitter) Emit(data EventData) {
	if e == nil {
		return
	}
	if base, ok := data.(interface{ setBase(string, time.Time) }); ok {
		base.setBase(e.traceID, time.Now())
	}
	event := NewEvent(data)
	e.mu.RLock()
	listeners := e.listeners
	e.mu.RUnlock()
	for _, l := range listeners {
		l.OnEvent(event)
	}
}

func (b *BaseEventData) setBase(traceID string, ts time.Time) {
	if b.TraceID == "" {
		b.TraceID = traceID
	}
	if b.Timestamp.IsZero() {
		b.Timestamp = ts
	}
}
