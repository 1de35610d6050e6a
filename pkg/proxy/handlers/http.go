package handlers

import (
	"bufio"
	"io"
	"log/slog"

	"laproxy/pkg/httpcodec"
)

var httpLogger = slog.Default().With("component", "handlers.http")

// HTTPProcessor inspects or rewrites one fully-parsed HTTP message.
// Returning ok=false drops the connection instead of forwarding the
// (possibly nil) message.
type HTTPProcessor interface {
	Request(req *httpcodec.Request) (*httpcodec.Request, bool)
	Response(resp *httpcodec.Response) (*httpcodec.Response, bool)
}

// HTTP is the message-grained ConnHandler: it parses one request or
// response at a time from its direction's stream, hands it to the
// processor, and writes back whatever comes out, until the stream ends
// or the processor drops the connection. Unlike the raw and line
// handlers it owns its own read loop rather than running atop
// proxy.RawLoop, since HTTP messages don't arrive in fixed-size chunks.
type HTTP struct {
	processor HTTPProcessor
}

// NewHTTP wraps processor in an HTTP ConnHandler.
func NewHTTP(processor HTTPProcessor) *HTTP {
	return &HTTP{processor: processor}
}

// Handle implements proxy.ConnHandler.
func (h *HTTP) Handle(r io.Reader, w io.Writer, inbound bool) error {
	reader := bufio.NewReader(r)
	for {
		if inbound {
			req, err := httpcodec.ParseRequest(reader)
			if err != nil {
				httpLogger.Warn("malformed HTTP request", "error", err)
				return err
			}
			if req == nil {
				return nil
			}
			out, ok := h.processor.Request(req)
			if !ok {
				httpLogger.Info("dropping HTTP connection", "inbound", inbound)
				return nil
			}
			if _, err := w.Write(out.Bytes()); err != nil {
				return err
			}
		} else {
			resp, err := httpcodec.ParseResponse(reader)
			if err != nil {
				httpLogger.Warn("malformed HTTP response", "error", err)
				return err
			}
			if resp == nil {
				return nil
			}
			out, ok := h.processor.Response(resp)
			if !ok {
				httpLogger.Info("dropping HTTP connection", "inbound", inbound)
				return nil
			}
			if _, err := w.Write(out.Bytes()); err != nil {
				return err
			}
		}
	}
}

// NoHTTP is the identity HTTPProcessor: it forwards every request and
// response unchanged.
type NoHTTP struct{}

func (NoHTTP) Request(req *httpcodec.Request) (*httpcodec.Request, bool)     { return req, true }
func (NoHTTP) Response(resp *httpcodec.Response) (*httpcodec.Response, bool) { return resp, true }
