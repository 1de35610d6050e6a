package handlers

// Noop is the trivial Handler that forwards every packet unchanged in
// both directions, the Go analogue of a reference identity handler used
// in transparent-proxy tests.
type Noop struct{}

// NewNoop constructs a Noop handler. It carries no per-connection state,
// but a fresh instance is still created by the factory for symmetry with
// stateful handlers.
func NewNoop() *Noop { return &Noop{} }

// Process implements proxy.Handler by returning the packet unchanged.
func (*Noop) Process(packet []byte, _ bool) ([]byte, bool) {
	return packet, true
}
