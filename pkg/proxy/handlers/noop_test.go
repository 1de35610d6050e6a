package handlers

import "testing"

func TestNoopForwardsUnchanged(t *testing.T) {
	h := NewNoop()
	for _, inbound := range []bool{true, false} {
		out, ok := h.Process([]byte("ciao"), inbound)
		if !ok || string(out) != "ciao" {
			t.Fatalf("expected unchanged passthrough, got %q, %v", out, ok)
		}
	}
}
