package events

// Event represents a structured state change emitted by the contract.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. the query
// service or an operator log).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events.
// Components that emit optionally can default to it instead of nil-checking.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}
