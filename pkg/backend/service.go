package backend

import (
	"sync"

	"laproxy/pkg/cluster"
)

// Service is one proxy instance's learned state: the model the Judge on
// the other end consults for verdicts, plus enough of the last refit's
// raw conversations to answer CHECK_EXAMPLES.
type Service struct {
	mu sync.Mutex

	id        string
	centroids []cluster.Point
	blocked   []int
	mode      string
	examples  []string

	pointsPath string
	convsPath  string
}

func newService(id, pointsPath, convsPath string) *Service {
	return &Service{
		id:         id,
		mode:       "SIMULATION_MODE",
		pointsPath: pointsPath,
		convsPath:  convsPath,
	}
}

// snapshot returns the (centroids, mode, blocked) triple a request
// handler should reply with: a defensive copy so the caller can't
// mutate the service's live state through the slices it returns.
func (s *Service) snapshot() ([]cluster.Point, string, []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	centroids := make([]cluster.Point, len(s.centroids))
	copy(centroids, s.centroids)
	blocked := make([]int, len(s.blocked))
	copy(blocked, s.blocked)
	return centroids, s.mode, blocked
}

// SetMode sets the service's enforcement mode, used by SET_MODE.
func (s *Service) SetMode(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

// SetBlocked overwrites the blocked list verbatim, used by SET_BLOCKED;
// it is not subject to the refit loop's transitivity until the next
// refit replaces it.
func (s *Service) SetBlocked(blocked []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocked = blocked
}

// installModel atomically replaces centroids, blocked, and examples
// after a refit, the single-writer side of the refit/reader contract.
func (s *Service) installModel(centroids []cluster.Point, blocked []int, examples []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.centroids = centroids
	s.blocked = blocked
	s.examples = examples
}

// ExamplesSnapshot returns the blocked set and example lines as of the
// last refit, formatted for CHECK_EXAMPLES.
func (s *Service) ExamplesSnapshot() (blocked []int, examples []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blocked = make([]int, len(s.blocked))
	copy(blocked, s.blocked)
	examples = make([]string, len(s.examples))
	copy(examples, s.examples)
	return blocked, examples
}

// Describe returns the centroid count, mode and a copy of the blocked
// list, used by the operator status banner and the metrics gauges.
func (s *Service) Describe() (clusterCount int, mode string, blocked []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blocked = make([]int, len(s.blocked))
	copy(blocked, s.blocked)
	return len(s.centroids), s.mode, blocked
}
