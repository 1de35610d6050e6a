package backend

import (
	"math/rand"

	"laproxy/pkg/backend/kmeans"
	"laproxy/pkg/backend/store"
	"laproxy/pkg/cluster"
)

// refitRestarts is the number of k-means++ restarts per candidate k,
// matching the "3 restarts" cadence.
const refitRestarts = 3

// refitAll refits every known service's model from its recent
// observations. One service's failure never stops the others.
func (b *Backend) refitAll() {
	for _, id := range b.ServiceIDs() {
		svc, ok := b.Service(id)
		if !ok {
			continue
		}
		if err := b.refitOne(svc); err != nil {
			logger.Error("refit failed", "service_id", id, "error", err)
		}
	}
}

// refitOne reads up to MaxRefitPoints of svc's most recent points,
// fits the best-scoring k-means model, propagates blocked status
// transitively from the previous generation's centroids, and installs
// the result atomically.
func (b *Backend) refitOne(svc *Service) error {
	pointLines, err := store.ReverseLines(svc.pointsPath, MaxRefitPoints)
	if err != nil {
		return err
	}
	if len(pointLines) == 0 {
		return nil
	}

	points := make([][]float64, len(pointLines))
	for i, line := range pointLines {
		points[i] = store.ParsePoint(line).Flatten()
	}

	rng := rand.New(rand.NewSource(refitSeed(svc.id, len(points))))

	maxK := maxCandidateK(len(points))

	var bestCentroids [][]float64
	var bestLabels []int
	bestSilhouette := -2.0
	bestK := 0

	for k := 1; k <= maxK; k++ {
		centroids := kmeans.Fit(points, k, refitRestarts, rng)
		if centroids == nil {
			continue
		}
		labels := assignAll(points, centroids)
		silhouette := 0.0
		if k > 1 {
			silhouette = kmeans.Silhouette(points, labels)
		}

		// Score tuples are (silhouette, -k, centroids); pick the
		// lexicographically largest: highest silhouette, then
		// smallest k as tie-break.
		if bestCentroids == nil || silhouette > bestSilhouette || (silhouette == bestSilhouette && k < bestK) {
			bestSilhouette = silhouette
			bestK = k
			bestCentroids = centroids
			bestLabels = labels
		}
	}
	if bestCentroids == nil {
		return nil
	}

	newCentroids := make([]cluster.Point, len(bestCentroids))
	for i, c := range bestCentroids {
		newCentroids[i] = cluster.NewPoint(c)
	}

	oldCentroids, _, oldBlocked := svc.snapshot()
	newBlocked := propagateBlocked(newCentroids, oldCentroids, oldBlocked)

	examples, err := buildExamples(svc, points, bestLabels, len(newCentroids))
	if err != nil {
		return err
	}

	svc.installModel(newCentroids, newBlocked, examples)
	if b.metrics != nil {
		b.metrics.RefitsRun.WithLabelValues(svc.id).Inc()
		b.metrics.observeService(svc)
	}
	return nil
}

// maxCandidateK returns the largest k evaluated when refitting n
// points: k ranges over [1, min(10, n)) the way the original's
// `range(1, min(10, len(dataset)))` does, an exclusive upper bound, so
// a service with 10 or more points stops evaluating at k=9. The result
// is never below 1: with a single point, where that range would be
// empty, k=1 is still evaluated.
func maxCandidateK(n int) int {
	limit := n
	if limit > 10 {
		limit = 10
	}
	maxK := limit - 1
	if maxK < 1 {
		maxK = 1
	}
	return maxK
}

// propagateBlocked marks new centroid i blocked when its nearest OLD
// centroid was itself blocked, making "blocked" transitive across
// refits. A new centroid nearest to a never-blocked old centroid stays
// unblocked even if most of its members came from a blocked cluster.
func propagateBlocked(newCentroids, oldCentroids []cluster.Point, oldBlocked []int) []int {
	if len(oldCentroids) == 0 {
		return nil
	}
	var blocked []int
	for i, c := range newCentroids {
		nearestOld := cluster.Assign(c, oldCentroids)
		if nearestOld != cluster.None && cluster.IsBlocked(nearestOld, oldBlocked) {
			blocked = append(blocked, i)
		}
	}
	return blocked
}

func assignAll(points [][]float64, centroids [][]float64) []int {
	labels := make([]int, len(points))
	for i, p := range points {
		best := 0
		bestDist := -1.0
		for c, centroid := range centroids {
			d := sqDist(p, centroid)
			if bestDist < 0 || d < bestDist {
				bestDist = d
				best = c
			}
		}
		labels[i] = best
	}
	return labels
}

func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// buildExamples walks points in (most-recent-first) order, records the
// first point assigned to each new centroid, then reads the
// conversations file in reverse to recover the raw text for each
// recorded index.
func buildExamples(svc *Service, points [][]float64, labels []int, k int) ([]string, error) {
	firstSeen := make([]int, k)
	for i := range firstSeen {
		firstSeen[i] = -1
	}
	remaining := k
	for i, label := range labels {
		if firstSeen[label] == -1 {
			firstSeen[label] = i
			remaining--
			if remaining == 0 {
				break
			}
		}
	}

	convLines, err := store.ReverseLines(svc.convsPath, len(points))
	if err != nil {
		return nil, err
	}

	examples := make([]string, k)
	for centroidIdx, pointIdx := range firstSeen {
		if pointIdx == -1 || pointIdx >= len(convLines) {
			continue
		}
		examples[centroidIdx] = convLines[pointIdx]
	}
	return examples, nil
}

// refitSeed derives a deterministic-per-call-shape seed so repeated
// refits of the same service at the same data size are reproducible in
// tests; real variation across rounds comes from the growing dataset.
func refitSeed(serviceID string, n int) int64 {
	var h int64 = 1469598103934665603
	for _, c := range serviceID {
		h ^= int64(c)
		h *= 1099511628211
	}
	return h ^ int64(n)
}
