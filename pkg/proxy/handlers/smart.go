package handlers

// Verdicter is the subset of judge.Judge a SmartTCP handler needs: scan
// outbound packets for a flag token and render a verdict over the
// inbound history once one is found. Kept as an interface so handler
// tests don't need a live Judge.
type Verdicter interface {
	ContainsFlag(packet []byte) bool
	Verdict(packets [][]byte) bool
}

// SmartTCP is the raw-packet Handler that records inbound traffic and
// asks a shared Verdicter for a kill/allow decision whenever an
// outbound packet contains a flag-shaped token. Every connection gets
// its own SmartTCP (and so its own private history slice) via the
// handler factory; the Verdicter itself is process-scoped and shared.
type SmartTCP struct {
	judge   Verdicter
	history [][]byte
}

// NewSmartTCP constructs a SmartTCP handler bound to judge, with an
// empty per-connection history.
func NewSmartTCP(judge Verdicter) *SmartTCP {
	return &SmartTCP{judge: judge}
}

// Process implements proxy.Handler. Inbound packets are appended to
// this connection's history and forwarded unchanged. Outbound packets
// are scanned for a flag token; if one is found, the judge is consulted
// over the accumulated inbound history, and a negative verdict drops
// the packet (and, by the caller's read-loop contract, the connection).
func (h *SmartTCP) Process(packet []byte, inbound bool) ([]byte, bool) {
	if inbound {
		h.history = append(h.history, packet)
		return packet, true
	}

	if h.judge.ContainsFlag(packet) {
		if !h.judge.Verdict(h.history) {
			return nil, false
		}
	}
	return packet, true
}
