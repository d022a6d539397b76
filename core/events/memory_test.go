package events

import "testing"

type testEvent string

func (e testEvent) EventType() string { return string(e) }

func TestMemoryEmitterRetainsOrder(t *testing.T) {
	emitter := NewMemoryEmitter()
	emitter.Emit(testEvent("first"))
	emitter.Emit(testEvent("second"))
	emitter.Emit(nil)

	recorded := emitter.Events()
	if len(recorded) != 2 {
		t.Fatalf("expected two events, got %d", len(recorded))
	}
	if recorded[0].EventType() != "first" || recorded[1].EventType() != "second" {
		t.Fatalf("events out of order: %v", recorded)
	}

	// the returned slice is a copy
	recorded[0] = testEvent("mutated")
	if emitter.Events()[0].EventType() != "first" {
		t.Fatalf("internal event list mutated through returned slice")
	}
}
