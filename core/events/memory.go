package events

import "sync"

// MemoryEmitter retains emitted events in order. The query service uses it to
// expose the event history of a running deal; tests use it to assert on
// transitions.
type MemoryEmitter struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryEmitter returns an empty in-memory event sink.
func NewMemoryEmitter() *MemoryEmitter {
	return &MemoryEmitter{}
}

// Emit implements the Emitter interface.
func (m *MemoryEmitter) Emit(evt Event) {
	if m == nil || evt == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

// Events returns a copy of the recorded event list in emission order.
func (m *MemoryEmitter) Events() []Event {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}
