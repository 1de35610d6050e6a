package cluster

// Model is the mutable triple (dataset, centroids, blocked) of a cluster
// model. The judge and the backend do not use this type: they hold the
// same state in their own structures (judge's snapshot and dataset,
// backend.Service). Every index in Blocked must be in
// [0, len(Centroids)); callers that mutate Centroids must keep that
// invariant, trimming or remapping Blocked as needed.
type Model struct {
	Dataset   [][][]byte
	Centroids []Point
	Blocked   []int
}

// Assign returns the index of the centroid nearest to newPoint by
// Euclidean distance, breaking ties toward the lowest index. It returns
// None if there are no centroids.
func Assign(newPoint Point, centroids []Point) int {
	minDist := -1.0
	minIndex := None
	for i, centroid := range centroids {
		dist := newPoint.DistanceToPoint(centroid)
		if minIndex == None || dist < minDist {
			minDist = dist
			minIndex = i
		}
	}
	return minIndex
}

// AssignFlat is Assign for a Point supplied as a flat coordinate slice
// (e.g. a raw centroid as it arrives from the wire). The backend's
// transitive blocked propagation converts centroids to Points and calls
// Assign directly.
func AssignFlat(values []float64, centroids []Point) int {
	return Assign(NewPoint(values), centroids)
}

// IsBlocked reports whether centroid index idx is present in blocked.
func IsBlocked(idx int, blocked []int) bool {
	for _, b := range blocked {
		if b == idx {
			return true
		}
	}
	return false
}
