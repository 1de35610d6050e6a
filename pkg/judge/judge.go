// Package judge implements the proxy-side learning client: it buffers
// observed connections, detects flag-shaped tokens in outbound traffic,
// consults the current clustering model for a verdict, and periodically
// exchanges data and model state with the backend.
package judge

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"laproxy/pkg/backend/wire"
	"laproxy/pkg/cluster"
)

// DefaultFlagRegex is the default flag-token pattern. Per the design
// note that this must be a configuration value, not a constant, callers
// are expected to build a Judge with whatever regex their deployment
// actually wants; this is only the value used when none is supplied.
const DefaultFlagRegex = `[A-Z0-9]{31}=`

// DefaultPushInterval is the reference cadence at which a Judge pushes
// its buffered dataset and asks for a refreshed model.
const DefaultPushInterval = 40 * time.Second

// DefaultUpdateTimeout bounds how long a Judge will wait for a backend
// reply before abandoning an update round.
const DefaultUpdateTimeout = 60 * time.Second

var logger = slog.Default().With("component", "judge")

// snapshot is the immutable (centroids, blocked, mode) triple a Judge
// installs atomically on each successful update round. Readers (the
// smart handler, on every verdict) load a reference to one of these
// rather than taking a lock across the nearest-centroid search.
type snapshot struct {
	centroids      []cluster.Point
	blocked        []int
	simulationMode bool
}

// Judge holds the process-scoped learning state shared by every
// connection a smart handler serves.
type Judge struct {
	updaterAddress string
	serviceID      string
	flagRegex      *regexp.Regexp
	pushInterval   time.Duration
	updateTimeout  time.Duration

	current atomic.Pointer[snapshot]

	datasetMu sync.Mutex
	dataset   [][][]byte

	cronRunner *cron.Cron
}

// Config collects a Judge's constructor parameters.
type Config struct {
	UpdaterHost   string
	UpdaterPort   int
	ServiceID     string
	FlagRegex     *regexp.Regexp // nil defaults to DefaultFlagRegex
	PushInterval  time.Duration  // zero defaults to DefaultPushInterval
	UpdateTimeout time.Duration  // zero defaults to DefaultUpdateTimeout
}

// New constructs a Judge starting in SIMULATION_MODE with no centroids,
// matching a freshly bootstrapped ClusterModel.
func New(cfg Config) *Judge {
	flagRegex := cfg.FlagRegex
	if flagRegex == nil {
		flagRegex = regexp.MustCompile(DefaultFlagRegex)
	}
	pushInterval := cfg.PushInterval
	if pushInterval <= 0 {
		pushInterval = DefaultPushInterval
	}
	updateTimeout := cfg.UpdateTimeout
	if updateTimeout <= 0 {
		updateTimeout = DefaultUpdateTimeout
	}

	j := &Judge{
		updaterAddress: fmt.Sprintf("%s:%d", cfg.UpdaterHost, cfg.UpdaterPort),
		serviceID:      cfg.ServiceID,
		flagRegex:      flagRegex,
		pushInterval:   pushInterval,
		updateTimeout:  updateTimeout,
	}
	j.current.Store(&snapshot{simulationMode: true})
	return j
}

// FlagRegex reports the flag-token pattern this Judge scans outbound
// packets for.
func (j *Judge) FlagRegex() *regexp.Regexp { return j.flagRegex }

// ContainsFlag reports whether packet contains a flag-shaped token.
func (j *Judge) ContainsFlag(packet []byte) bool {
	return j.flagRegex.Match(packet)
}

// Verdict records packets as one connection's observed history and
// reports whether the connection should be allowed. In SIMULATION_MODE
// the verdict is always "allow", but the packets are still recorded for
// the next push.
func (j *Judge) Verdict(packets [][]byte) bool {
	j.record(packets)

	snap := j.current.Load()
	if snap.simulationMode {
		return true
	}

	point := cluster.PointFromPackets(packets)
	assigned := cluster.Assign(point, snap.centroids)
	if assigned != cluster.None && cluster.IsBlocked(assigned, snap.blocked) {
		logger.Info("blocking a connection", "service_id", j.serviceID, "cluster", assigned)
		return false
	}
	return true
}

func (j *Judge) record(packets [][]byte) {
	j.datasetMu.Lock()
	defer j.datasetMu.Unlock()
	j.dataset = append(j.dataset, packets)
}

// swapDataset atomically replaces the dataset with an empty one and
// returns whatever had accumulated, the "in-place append with periodic
// swap-and-clear" pattern: appends that race with the swap land in the
// new, empty slice and belong to the next round.
func (j *Judge) swapDataset() [][][]byte {
	j.datasetMu.Lock()
	defer j.datasetMu.Unlock()
	pushed := j.dataset
	j.dataset = nil
	return pushed
}

// Start runs the periodic update loop until ctx is cancelled. Each
// round pushes the buffered dataset to the backend and, on a
// well-formed reply, installs a fresh snapshot.
func (j *Judge) Start(ctx context.Context) error {
	j.cronRunner = cron.New()
	_, err := j.cronRunner.AddFunc(fmt.Sprintf("@every %s", j.pushInterval), func() {
		j.updateOnce()
	})
	if err != nil {
		return fmt.Errorf("schedule judge update loop: %w", err)
	}
	j.cronRunner.Start()

	<-ctx.Done()
	stopCtx := j.cronRunner.Stop()
	<-stopCtx.Done()
	return nil
}

func (j *Judge) updateOnce() {
	dataset := j.swapDataset()

	conn, err := net.DialTimeout("tcp", j.updaterAddress, j.updateTimeout)
	if err != nil {
		logger.Info("update round: failed to dial backend", "error", err)
		return
	}
	defer conn.Close()

	request := wire.EncodeUpdateRequest(j.serviceID, dataset)
	if _, err := conn.Write([]byte(request)); err != nil {
		logger.Info("update round: failed to send request", "error", err)
		return
	}
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		cw.CloseWrite()
	}

	reply, err := readUntilEOFOrTimeout(conn, j.updateTimeout)
	if err != nil {
		logger.Info("update round: failed to read reply", "error", err)
		return
	}

	centroids, mode, blocked, skip := wire.DecodeResponse(reply)
	if skip {
		logger.Debug("update round: empty or bootstrap reply, keeping current model")
		return
	}

	j.current.Store(&snapshot{
		centroids:      centroids,
		blocked:        blocked,
		simulationMode: mode != wire.ModeActive,
	})
	logger.Info("update round: installed new model", "centroids", len(centroids), "mode", mode)
}

// readUntilEOFOrTimeout reads from conn in 1024-byte chunks
// until a short read (EOF) or the timeout elapses, matching the
// backend's own wire-level read convention.
func readUntilEOFOrTimeout(conn net.Conn, timeout time.Duration) (string, error) {
	const chunkSize = 1024
	deadline := time.Now().Add(timeout)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return "", err
	}

	reader := bufio.NewReaderSize(conn, chunkSize)
	var out []byte
	buf := make([]byte, chunkSize)
	for {
		n, err := reader.Read(buf)
		out = append(out, buf[:n]...)
		if n < chunkSize {
			return string(out), nil
		}
		if err != nil {
			return string(out), err
		}
	}
}
