// Package handlers collects the Handler and ConnHandler implementations
// that pkg/proxy's TCPProxy dispatches each connection to, selected by
// a configured proxy instance's mode.
//
// # Handler Types
//
// Packet-grained (proxy.Handler, run under proxy.RawLoop):
//   - Noop: forwards every packet unchanged in both directions.
//   - SmartTCP: records inbound history, asks a Verdicter to classify
//     the connection once an outbound packet contains a flag-shaped
//     token, and drops the connection on a negative verdict.
//
// Line-grained (proxy.LineProcessor, wrapped in proxy.NewLineHandler
// and also run under proxy.RawLoop):
//   - NoLine: forwards every '\n'-terminated line unchanged.
//
// Message-grained (proxy.ConnHandler, owns its own read loop):
//   - HTTP: parses one httpcodec.Request or httpcodec.Response at a
//     time from its direction's stream, hands it to an HTTPProcessor,
//     and writes back whatever the processor returns; NoHTTP is the
//     identity HTTPProcessor.
//
// None of these handlers terminate HTTP themselves or speak any
// framing beyond what httpcodec parses: there is no JSON API, no
// Server-Sent Events, no WebSocket upgrade, and no health-check
// endpoint in this package. A dropped connection is communicated by
// returning ok=false, which the caller's read loop turns into closing
// the socket.
package handlers
