package httpcodec

import "bufio"

// Request is a parsed HTTP request line plus its shared payload.
type Request struct {
	Method  string
	Path    string
	Version string
	Payload Payload
}

// Headers exposes the request's headers for callers that want to treat
// Request uniformly with Response.
func (req *Request) Headers() *Headers { return req.Payload.Headers }

// Body exposes the request's body for callers that want to treat
// Request uniformly with Response.
func (req *Request) Body() []byte { return req.Payload.Body }

// ParseRequest reads one HTTP request from r. A nil Request with a nil
// error means the stream ended cleanly before a new request started;
// that is not an error condition, it is how a handler learns to stop
// reading.
func ParseRequest(r *bufio.Reader) (*Request, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if line == "" {
		return nil, nil
	}
	match := requestLineRE.FindStringSubmatch(line)
	if match == nil {
		return nil, &MalformedRequestLineError{Line: line}
	}
	method, path, version := match[1], match[2], match[3]
	logger.Debug("got request line", "method", method, "path", path, "version", version, "line", line)

	payload, err := ParsePayload(r)
	if err != nil {
		return nil, err
	}
	return &Request{Method: method, Path: path, Version: version, Payload: payload}, nil
}

// Bytes serialises the request back to wire form: the request line
// followed by headers in their original case and insertion order, a
// blank line, then the body.
func (req *Request) Bytes() []byte {
	out := make([]byte, 0, 64+len(req.Payload.Body))
	out = append(out, req.Method...)
	out = append(out, ' ')
	out = append(out, req.Path...)
	out = append(out, " HTTP/"...)
	out = append(out, req.Version...)
	out = append(out, '\r', '\n')
	return req.Payload.appendTo(out)
}
