// Command laproxy is the intercepting TCP/HTTP reverse proxy dataplane.
//
// It listens on one or more configured ports, forwards traffic to a
// target address, and (in "smart" mode) asks a backend learning
// service for a kill/allow verdict on each connection based on a
// flag-shaped token appearing in outbound traffic.
//
// Usage:
//
//	# Start with a config file
//	laproxy run --config /path/to/config.yaml
//
//	# Show version information
//	laproxy version
package main

func main() {
	Execute()
}
