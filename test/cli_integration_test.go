//go:build integration

package test

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// TestTransparentTCPEcho builds both binaries, starts a laproxy instance
// in raw mode in front of a plain TCP echo server, and confirms bytes
// cross unmodified in both directions (end-to-end scenario 1).
func TestTransparentTCPEcho(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	echoAddr, stopEcho := startEchoServer(t)
	defer stopEcho()

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")
	listenPort := 19080
	targetHost, targetPort := splitHostPort(t, echoAddr)

	createTestConfig(t, configFile, fmt.Sprintf(`
proxies:
  - service_id: echo
    listen_address: "127.0.0.1"
    listen_port: %d
    target_address: %q
    target_port: %d
    mode: raw

logging:
  level: warn
`, listenPort, targetHost, targetPort))

	proxyBinary := buildBinary(t, "laproxy")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, proxyBinary, "run", "--config", configFile)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start laproxy: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	}()

	proxyAddr := fmt.Sprintf("127.0.0.1:%d", listenPort)
	if !waitForListener(proxyAddr, 10*time.Second) {
		t.Fatalf("laproxy did not start listening\nStdout: %s\nStderr: %s", stdout.String(), stderr.String())
	}

	conn, err := net.DialTimeout("tcp", proxyAddr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial proxy: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("ciao")); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(buf[:n]); got != "ciao" {
		t.Fatalf("expected echo of %q, got %q", "ciao", got)
	}
}

// TestLaproxyBackendDryRun exercises laproxy-backend's config
// validation path without starting the learning server.
func TestLaproxyBackendDryRun(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")
	createTestConfig(t, configFile, fmt.Sprintf(`
backend:
  listen_address: "127.0.0.1"
  listen_port: 19100
  data_dir: %q
  refit_interval: 1m
  request_timeout: 5s

logging:
  level: warn
`, filepath.Join(tmpDir, "data")))

	binaryPath := buildBinary(t, "laproxy-backend")
	cmd := exec.Command(binaryPath, "run", "--config", configFile, "--dry-run")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("dry-run should succeed with valid config: %v\nOutput: %s", err, output)
	}
	if !bytes.Contains(output, []byte("valid")) {
		t.Errorf("expected dry-run output to confirm validity, got: %s", output)
	}
}

// TestCommandVersionOutput tests the version subcommand on both binaries.
func TestCommandVersionOutput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	for _, name := range []string{"laproxy", "laproxy-backend"} {
		name := name
		t.Run(name, func(t *testing.T) {
			binaryPath := buildBinary(t, name)
			output, err := exec.Command(binaryPath, "version").CombinedOutput()
			if err != nil {
				t.Fatalf("version command failed: %v\nOutput: %s", err, output)
			}
			if len(bytes.TrimSpace(output)) == 0 {
				t.Errorf("expected non-empty version output")
			}
		})
	}
}

// Helper functions

// buildBinary builds cmd/<name> for testing, reusing an existing
// binary under ../bin if one is already present.
func buildBinary(t *testing.T, name string) string {
	t.Helper()

	binaryPath := filepath.Join("..", "bin", name)
	if _, err := os.Stat(binaryPath); err == nil {
		return binaryPath
	}

	t.Logf("building %s binary...", name)
	cmd := exec.Command("go", "build", "-o", binaryPath, filepath.Join("..", "cmd", name))
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build %s: %v\nOutput: %s", name, err, output)
	}
	return binaryPath
}

// waitForListener waits until a TCP listener accepts connections at addr.
func waitForListener(addr string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err == nil {
			conn.Close()
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

// createTestConfig creates a test configuration file.
func createTestConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create config file: %v", err)
	}
}

// startEchoServer starts a plain TCP echo listener for use as a proxy
// target, returning its address and a stop function.
func startEchoServer(t *testing.T) (string, func()) {
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
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 4096)
				for {
					n, err := c.Read(buf)
					if n > 0 {
						if _, werr := c.Write(buf[:n]); werr != nil {
							return
						}
					}
					if err != nil {
						return
					}
				}
			}(conn)
		}
	}()

	return ln.Addr().String(), func() { ln.Close() }
}

// splitHostPort splits an address into its host and integer port.
func splitHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		t.Fatalf("parse port: %v", err)
	}
	return host, port
}
