package types

// Event is the flattened, attribute-based form of a state transition emitted
// by the contract. Query surfaces and log sinks consume this shape.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
