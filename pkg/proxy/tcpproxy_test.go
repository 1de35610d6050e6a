package proxy

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"laproxy/pkg/proxy/handlers"
)

// startEchoServer starts a TCP server that echoes back whatever it
// receives, used as the proxy's upstream target in these tests.
func startEchoServer(t *testing.T) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to start echo server: %v", err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				buf := make([]byte, 1024)
				for {
					n, err := conn.Read(buf)
					if n > 0 {
						conn.Write(buf[:n])
					}
					if err != nil {
						return
					}
				}
			}()
		}
	}()
	return ln.Addr().String(), func() { ln.Close() }
}

func splitHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("failed to split %q: %v", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("failed to parse port %q: %v", portStr, err)
	}
	return host, port
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	_, port := splitHostPort(t, ln.Addr().String())
	ln.Close()
	return port
}

func waitForListener(t *testing.T, host string, port int) {
	t.Helper()
	addr := fmt.Sprintf("%s:%d", host, port)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("listener on %s never became ready", addr)
}

func TestTransparentTCPEcho(t *testing.T) {
	upstreamAddr, stopUpstream := startEchoServer(t)
	defer stopUpstream()
	upstreamHost, upstreamPort := splitHostPort(t, upstreamAddr)
	proxyPort := freePort(t)

	p := NewTCPProxy("127.0.0.1", proxyPort, upstreamHost, upstreamPort, func() ConnHandler {
		return NewRawLoop(handlers.NewNoop())
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)
	defer p.Shutdown()
	waitForListener(t, "127.0.0.1", proxyPort)

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", proxyPort))
	if err != nil {
		t.Fatalf("failed to dial proxy: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("ciao")); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 16)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("failed to read echo: %v", err)
	}
	if !bytes.Equal(buf[:n], []byte("ciao")) {
		t.Fatalf("expected ciao echoed back, got %q", buf[:n])
	}
}

// dropCiaoOutbound drops any outbound packet containing "ciao",
// exercising the "TCP drop rule" end-to-end scenario.
type dropCiaoOutbound struct{}

func (dropCiaoOutbound) Process(packet []byte, inbound bool) ([]byte, bool) {
	if !inbound && bytes.Contains(packet, []byte("ciao")) {
		return nil, false
	}
	return packet, true
}

func TestTCPDropRuleClosesConnectionWithoutForwarding(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		// waitForListener's probe connection is also proxied upstream,
		// so every accepted connection gets the "ciao" greeting.
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Write([]byte("ciao"))
			conn.Close()
		}
	}()
	upstreamHost, upstreamPort := splitHostPort(t, ln.Addr().String())
	proxyPort := freePort(t)

	p := NewTCPProxy("127.0.0.1", proxyPort, upstreamHost, upstreamPort, func() ConnHandler {
		return NewRawLoop(dropCiaoOutbound{})
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)
	defer p.Shutdown()
	waitForListener(t, "127.0.0.1", proxyPort)

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", proxyPort))
	if err != nil {
		t.Fatalf("failed to dial proxy: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 16)
	n, err := conn.Read(buf)
	if n != 0 {
		t.Fatalf("expected nothing forwarded to client, got %q", buf[:n])
	}
	if err == nil {
		t.Fatalf("expected connection to close after dropped packet")
	}
}
