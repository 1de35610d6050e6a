// Package httpcodec implements the deliberately non-conformant HTTP/1.x
// line grammar used to parse and re-serialise intercepted request and
// response streams. It is not a replacement for net/http: it exists to
// reproduce one specific, narrow grammar so that a handler can mutate a
// message and re-emit bytes that look like what arrived.
package httpcodec

import "strings"

// Headers is an HTTP header collection that compares keys
// case-insensitively but preserves the case of the key as first set, and
// preserves insertion order on iteration (Keys/Entries), matching the
// wire order a server or client actually sent.
type Headers struct {
	order []string          // original-case keys, in insertion order
	index map[string]int    // lower(key) -> position in order
	data  map[string]string // lower(key) -> value
}

// NewHeaders returns an empty header collection.
func NewHeaders() *Headers {
	return &Headers{
		index: make(map[string]int),
		data:  make(map[string]string),
	}
}

// Get returns the value stored for key, compared case-insensitively, and
// whether it was present.
func (h *Headers) Get(key string) (string, bool) {
	v, ok := h.data[strings.ToLower(key)]
	return v, ok
}

// Set stores value under key. If an equivalent key (case-insensitively)
// already exists, its value is replaced but its original case and
// position are kept, matching the original's UserDict-backed __setitem__
// semantics.
func (h *Headers) Set(key, value string) {
	lower := strings.ToLower(key)
	if _, ok := h.data[lower]; !ok {
		h.index[lower] = len(h.order)
		h.order = append(h.order, key)
	}
	h.data[lower] = value
}

// Has reports whether key is present, compared case-insensitively.
func (h *Headers) Has(key string) bool {
	_, ok := h.data[strings.ToLower(key)]
	return ok
}

// Keys returns the original-case keys in insertion order.
func (h *Headers) Keys() []string {
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// Entries returns (key, value) pairs in insertion order, with keys in
// their originally-set case.
func (h *Headers) Entries() []HeaderEntry {
	out := make([]HeaderEntry, 0, len(h.order))
	for _, key := range h.order {
		out = append(out, HeaderEntry{Key: key, Value: h.data[strings.ToLower(key)]})
	}
	return out
}

// Len reports the number of distinct headers stored.
func (h *Headers) Len() int {
	return len(h.order)
}

// HeaderEntry is a single header line's key/value pair, key case as
// originally set.
type HeaderEntry struct {
	Key   string
	Value string
}
