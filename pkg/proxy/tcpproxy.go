package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"

	"github.com/google/uuid"
)

var logger = slog.Default().With("component", "proxy")

// TCPProxy forwards TCP connections from a listen address to a single
// target address, running a fresh ConnHandler (built by Factory) per
// connection.
type TCPProxy struct {
	ListenAddress string
	ListenPort    int
	TargetAddress string
	TargetPort    int
	Factory       ConnFactory

	mu           sync.Mutex
	listener     net.Listener
	shutdownOnce sync.Once
	done         chan struct{}
}

// NewTCPProxy constructs a proxy instance. Run must be called to start
// it; each accepted connection gets one Factory()-constructed handler.
func NewTCPProxy(listenAddr string, listenPort int, targetAddr string, targetPort int, factory ConnFactory) *TCPProxy {
	return &TCPProxy{
		ListenAddress: listenAddr,
		ListenPort:    listenPort,
		TargetAddress: targetAddr,
		TargetPort:    targetPort,
		Factory:       factory,
		done:          make(chan struct{}),
	}
}

// Run listens and serves until the process receives SIGINT/SIGTERM or
// ctx is cancelled, then returns cleanly. It blocks the caller.
func (p *TCPProxy) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", p.ListenAddress, p.ListenPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	p.mu.Lock()
	p.listener = listener
	p.mu.Unlock()

	logger.Info("proxy listening", "listen", addr, "target",
		fmt.Sprintf("%s:%d", p.TargetAddress, p.TargetPort))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	acceptErr := make(chan error, 1)
	go func() {
		acceptErr <- p.acceptLoop(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("context cancelled, stopping proxy")
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-acceptErr:
		if err != nil {
			logger.Error("accept loop stopped with error", "error", err)
		}
	}
	return p.Shutdown()
}

// Shutdown stops accepting new connections. In-flight connections are
// left to drain on their own EOF; it is idempotent.
func (p *TCPProxy) Shutdown() error {
	var err error
	p.shutdownOnce.Do(func() {
		close(p.done)
		p.mu.Lock()
		l := p.listener
		p.mu.Unlock()
		if l != nil {
			err = l.Close()
		}
		logger.Info("proxy stopped", "listen", fmt.Sprintf("%s:%d", p.ListenAddress, p.ListenPort))
	})
	return err
}

func (p *TCPProxy) acceptLoop(ctx context.Context) error {
	for {
		conn, err := p.listener.Accept()
		if err != nil {
			select {
			case <-p.done:
				return nil
			default:
			}
			return err
		}
		go p.serve(ctx, conn)
	}
}

func (p *TCPProxy) serve(ctx context.Context, client net.Conn) {
	connID := uuid.NewString()
	remote := client.RemoteAddr().String()
	log := logger.With("conn_id", connID, "remote", remote)

	defer func() {
		if r := recover(); r != nil {
			log.Error("recovered panic serving connection", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	targetAddr := fmt.Sprintf("%s:%d", p.TargetAddress, p.TargetPort)
	upstream, err := net.Dial("tcp", targetAddr)
	if err != nil {
		log.Info("failed to dial upstream", "target", targetAddr, "error", err)
		client.Close()
		return
	}

	log.Info("connection accepted", "target", targetAddr)

	handler := p.Factory()

	finished := make(chan struct{}, 2)
	go func() {
		p.pump(log, handler, client, upstream, true)
		finished <- struct{}{}
	}()
	go func() {
		p.pump(log, handler, upstream, client, false)
		finished <- struct{}{}
	}()

	// Whichever direction finishes first tears down both sockets,
	// unblocking the other direction's pending read so it can exit
	// too; the listener never waits on this.
	<-finished
	client.Close()
	upstream.Close()
	<-finished
	log.Info("connection closed")
}

// pump runs one direction of a connection to completion, recovering
// from a handler panic so the other direction and the listener are
// unaffected.
func (p *TCPProxy) pump(log *slog.Logger, handler ConnHandler, r, w net.Conn, inbound bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("recovered panic in connection direction", "inbound", inbound, "panic", rec, "stack", string(debug.Stack()))
		}
	}()
	if err := handler.Handle(r, w, inbound); err != nil {
		log.Info("direction terminated", "inbound", inbound, "error", err)
	}
}
