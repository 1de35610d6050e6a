// Command laproxy-backend is the central learning service: it accepts
// per-connection observations pushed by laproxy Judges, persists them
// per service, and periodically refits each service's cluster model.
//
// Usage:
//
//	# Start with a config file
//	laproxy-backend run --config /path/to/config.yaml
//
//	# Show version information
//	laproxy-backend version
package main

func main() {
	Execute()
}
