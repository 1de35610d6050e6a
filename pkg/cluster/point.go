// Package cluster implements the feature-vector and k-means clustering
// primitives shared by the proxy-side judge and the backend learning loop.
package cluster

import "math"

const (
	// Dimensions is the number of packets encoded per direction of a Point.
	// A Point has 2*Dimensions scalar components: Dimensions lengths and
	// Dimensions sussyness ratios.
	Dimensions = 16

	// MaxPacketSize bounds the length normalisation in PointFromPackets.
	MaxPacketSize = 250

	// None is the sentinel centroid index returned by Assign when there
	// are no centroids to compare against.
	None = -1
)

// Point is a fixed-dimensionality feature vector: Lengths[i] is the
// normalised size of the i-th recorded packet, Sussyness[i] is the
// fraction of non-"safe" bytes in that packet. Missing packets leave
// their slot at zero.
type Point struct {
	Lengths   [Dimensions]float64
	Sussyness [Dimensions]float64
}

// NewPoint builds a Point from a flat list of 2*Dimensions floats, in the
// same [lengths..., sussyness...] layout produced by Flatten. A values
// slice shorter than 2*Dimensions is accepted and left zero-padded.
func NewPoint(values []float64) Point {
	var p Point
	for i := 0; i < Dimensions && i < len(values); i++ {
		p.Lengths[i] = values[i]
	}
	for i := 0; i < Dimensions && Dimensions+i < len(values); i++ {
		p.Sussyness[i] = values[Dimensions+i]
	}
	return p
}

// Flatten converts the Point to its 2*Dimensions flat representation,
// lengths followed by sussyness, matching the wire and file encodings.
func (p Point) Flatten() []float64 {
	out := make([]float64, 0, 2*Dimensions)
	out = append(out, p.Lengths[:]...)
	out = append(out, p.Sussyness[:]...)
	return out
}

// isSafeByte reports whether b is an ASCII digit, a case-folded letter,
// or one of the whitelisted punctuation bytes (tab, newline, space, '.',
// '@'), per spec.md's "safe byte" definition.
func isSafeByte(b byte) bool {
	if b >= '0' && b <= '9' {
		return true
	}
	folded := b | 0x20
	if folded >= 'a' && folded <= 'z' {
		return true
	}
	switch b {
	case '\t', '\n', ' ', '.', '@':
		return true
	}
	return false
}

// PointFromPackets converts a connection's packet list into a Point.
// Only the last Dimensions packets are considered (a tail window, to
// resist spam attacks); empty packets are skipped while iterating but do
// not reclaim a slot, and the first Dimensions non-empty packets
// encountered in that tail window fill the Point in insertion order.
func PointFromPackets(packets [][]byte) Point {
	var p Point

	window := packets
	if len(window) > Dimensions {
		window = window[len(window)-Dimensions:]
	}

	slot := 0
	for _, packet := range window {
		if len(packet) == 0 {
			continue
		}
		length := len(packet)

		safe := 0
		for _, b := range packet {
			if isSafeByte(b) {
				safe++
			}
		}
		sus := length - safe

		p.Lengths[slot] = float64(length+5) / float64(MaxPacketSize+5)
		p.Sussyness[slot] = float64(sus) / float64(length)

		slot++
		if slot >= Dimensions {
			break
		}
	}

	return p
}

// Distance returns the Euclidean distance between p and a flat
// 2*Dimensions-length coordinate sequence (e.g. a raw centroid arriving
// from the wire).
func (p Point) Distance(other []float64) float64 {
	var sum float64
	for i := 0; i < Dimensions; i++ {
		dl := p.Lengths[i] - valueAt(other, i)
		sum += dl * dl
	}
	for i := 0; i < Dimensions; i++ {
		ds := p.Sussyness[i] - valueAt(other, Dimensions+i)
		sum += ds * ds
	}
	return math.Sqrt(sum)
}

// DistanceToPoint returns the Euclidean distance between two Points.
func (p Point) DistanceToPoint(q Point) float64 {
	return p.Distance(q.Flatten())
}

func valueAt(values []float64, i int) float64 {
	if i < 0 || i >= len(values) {
		return 0
	}
	return values[i]
}
