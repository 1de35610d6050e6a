// Package backend implements the learning server: it accepts Judge
// update pushes, persists observations per service, and periodically
// refits each service's cluster model from its recent history.
package backend

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"laproxy/pkg/backend/store"
	"laproxy/pkg/backend/wire"
	"laproxy/pkg/cluster"
)

// DefaultRefitInterval is the reference cadence at which every known
// service's model is refit from its recent observations.
const DefaultRefitInterval = 45 * time.Second

// DefaultRequestTimeout bounds how long the request handler waits for
// a complete request before giving up on the connection.
const DefaultRequestTimeout = 60 * time.Second

// MaxRefitPoints is the most recent points considered per refit, read
// reverse-chronologically from a service's points file.
const MaxRefitPoints = 2500

var logger = slog.Default().With("component", "backend")

// Config collects a Backend's constructor parameters.
type Config struct {
	ListenAddress  string
	ListenPort     int
	DataDir        string        // directory holding each service's *-points.txt / *-convs.txt
	RefitInterval  time.Duration // zero defaults to DefaultRefitInterval
	RequestTimeout time.Duration // zero defaults to DefaultRequestTimeout
	Metrics        *Metrics      // nil disables metric recording
}

// Backend owns every known service's state, the listener accepting
// Judge pushes, and the periodic refit loop.
type Backend struct {
	listenAddress  string
	listenPort     int
	dataDir        string
	refitInterval  time.Duration
	requestTimeout time.Duration
	metrics        *Metrics

	mu       sync.Mutex
	services map[string]*Service

	listener     net.Listener
	shutdownOnce sync.Once
	done         chan struct{}
	cronRunner   *cron.Cron
}

// New constructs a Backend. Run must be called to start serving.
func New(cfg Config) *Backend {
	refitInterval := cfg.RefitInterval
	if refitInterval <= 0 {
		refitInterval = DefaultRefitInterval
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	return &Backend{
		listenAddress:  cfg.ListenAddress,
		listenPort:     cfg.ListenPort,
		dataDir:        cfg.DataDir,
		refitInterval:  refitInterval,
		requestTimeout: requestTimeout,
		metrics:        cfg.Metrics,
		services:       make(map[string]*Service),
		done:           make(chan struct{}),
	}
}

// EnsureService returns the service state for id, creating it (and its
// backing files) if this is the first reference, matching "files are
// created on first reference".
func (b *Backend) EnsureService(id string) *Service {
	b.mu.Lock()
	defer b.mu.Unlock()
	if svc, ok := b.services[id]; ok {
		return svc
	}
	svc := newService(id, b.pointsPath(id), b.convsPath(id))
	store.EnsureFile(svc.pointsPath)
	store.EnsureFile(svc.convsPath)
	b.services[id] = svc
	return svc
}

// Service looks up an already-referenced service without creating one.
func (b *Backend) Service(id string) (*Service, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	svc, ok := b.services[id]
	return svc, ok
}

// ServiceIDs returns every known service id, used by the refit loop
// and the operator status banner.
func (b *Backend) ServiceIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(b.services))
	for id := range b.services {
		ids = append(ids, id)
	}
	return ids
}

func (b *Backend) pointsPath(id string) string {
	return filepath.Join(b.dataDir, fmt.Sprintf("%s-points.txt", id))
}

func (b *Backend) convsPath(id string) string {
	return filepath.Join(b.dataDir, fmt.Sprintf("%s-convs.txt", id))
}

// Run listens for Judge pushes and drives the refit loop until the
// process receives SIGINT/SIGTERM or ctx is cancelled. It blocks the
// caller.
func (b *Backend) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", b.listenAddress, b.listenPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	b.listener = listener
	logger.Info("backend listening", "listen", addr, "data_dir", b.dataDir)

	b.cronRunner = cron.New()
	if _, err := b.cronRunner.AddFunc(fmt.Sprintf("@every %s", b.refitInterval), b.refitAll); err != nil {
		return fmt.Errorf("schedule refit loop: %w", err)
	}
	b.cronRunner.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	acceptErr := make(chan error, 1)
	go func() { acceptErr <- b.acceptLoop() }()

	select {
	case <-ctx.Done():
		logger.Info("context cancelled, stopping backend")
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-acceptErr:
		if err != nil {
			logger.Error("accept loop stopped with error", "error", err)
		}
	}
	return b.Shutdown()
}

// Shutdown stops accepting connections and the refit loop. Idempotent.
func (b *Backend) Shutdown() error {
	var err error
	b.shutdownOnce.Do(func() {
		close(b.done)
		if b.cronRunner != nil {
			stopCtx := b.cronRunner.Stop()
			<-stopCtx.Done()
		}
		if b.listener != nil {
			err = b.listener.Close()
		}
		logger.Info("backend stopped")
	})
	return err
}

func (b *Backend) acceptLoop() error {
	for {
		conn, err := b.listener.Accept()
		if err != nil {
			select {
			case <-b.done:
				return nil
			default:
			}
			return err
		}
		go b.serve(conn)
	}
}

func (b *Backend) serve(conn net.Conn) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("recovered panic serving update connection", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	raw, err := readRequest(conn, b.requestTimeout)
	if err != nil {
		logger.Info("update connection: read failed", "error", err)
		return
	}

	serviceID, payload, ok := wire.DecodeUpdateRequest(raw)
	if !ok {
		logger.Info("update connection: malformed request, closing without reply")
		return
	}

	svc := b.EnsureService(serviceID)
	if b.metrics != nil {
		b.metrics.ConnectionsServed.Inc()
	}

	// Reply with the PRE-update model before persisting this push's
	// observations: a new service's own data cannot influence the
	// model it is replied with until the following refit cycle.
	centroids, mode, blocked := svc.snapshot()
	reply := wire.EncodeResponse(centroids, mode, blocked)
	if _, err := conn.Write([]byte(reply)); err != nil {
		logger.Info("update connection: reply failed", "error", err)
		return
	}

	dataset := wire.DecodeDataset(payload)
	if len(dataset) == 0 {
		return
	}
	persist(svc, dataset, b.metrics)
}

// persist appends one points.txt line and one convs.txt line per
// interaction in dataset.
func persist(svc *Service, dataset [][][]byte, metrics *Metrics) {
	pointLines := make([]string, 0, len(dataset))
	convLines := make([]string, 0, len(dataset))
	for _, packets := range dataset {
		point := cluster.PointFromPackets(packets)
		pointLines = append(pointLines, store.FormatPoint(point))
		convLines = append(convLines, store.FormatConversation(packets))
	}
	if err := store.AppendLines(svc.pointsPath, pointLines); err != nil {
		logger.Error("failed to append points", "service_id", svc.id, "error", err)
	}
	if err := store.AppendLines(svc.convsPath, convLines); err != nil {
		logger.Error("failed to append conversations", "service_id", svc.id, "error", err)
	}
	if metrics != nil {
		for range dataset {
			metrics.ObservationsPersisted.Inc()
		}
	}
}

// readRequest reads conn in 1024-byte chunks until a short read (EOF)
// or timeout elapses, matching the wire-level read convention shared
// with the Judge's own update round.
func readRequest(conn net.Conn, timeout time.Duration) (string, error) {
	const chunkSize = 1024
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
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
