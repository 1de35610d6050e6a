// Package proxy implements the intercepting TCP dataplane: one
// TCPProxy per protected service port, forwarding bidirectional byte
// streams between a client and a single upstream through a
// per-connection Handler.
//
// # Architecture
//
//   - TCPProxy: listener, accept loop, per-connection goroutine pair
//   - Handler / ConnHandler: pluggable per-direction processing, at
//     raw-packet (Handler via RawLoop), line-delimited (LineHandler),
//     or HTTP request/response (handlers.HTTP) granularity
//   - handlers: ready-to-use Handler/ConnHandler implementations
//     (Noop, NoLine, NoHTTP, SmartTCP) that cmd/laproxy selects
//     between by configured ProxyMode
//
// # Basic usage
//
//	factory := func() proxy.ConnHandler {
//	    return proxy.NewRawLoop(handlers.NewNoop())
//	}
//	p := proxy.NewTCPProxy("0.0.0.0", 8080, "127.0.0.1", 80, factory)
//	if err := p.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Connection lifecycle
//
// Run blocks, accepting connections until ctx is cancelled or the
// process receives SIGINT/SIGTERM. Each accepted connection dials the
// configured upstream, builds one Handler via Factory, and runs two
// goroutines (inbound client→upstream, outbound upstream→client)
// against it concurrently; whichever direction finishes first closes
// both sockets so the other direction's pending read unblocks and
// exits too. A panic in either direction, or in a handler, is
// recovered and logged — it never reaches the listener, which keeps
// accepting new connections regardless of any one connection's fate.
package proxy
