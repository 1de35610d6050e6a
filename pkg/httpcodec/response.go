package httpcodec

import "bufio"

// Response is a parsed HTTP response line plus its shared payload.
type Response struct {
	Version string
	Code    string
	Message string
	Payload Payload
}

// Headers exposes the response's headers for callers that want to treat
// Response uniformly with Request.
func (resp *Response) Headers() *Headers { return resp.Payload.Headers }

// Body exposes the response's body for callers that want to treat
// Response uniformly with Request.
func (resp *Response) Body() []byte { return resp.Payload.Body }

// ParseResponse reads one HTTP response from r. A nil Response with a
// nil error means the stream ended cleanly before a new response
// started.
func ParseResponse(r *bufio.Reader) (*Response, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if line == "" {
		return nil, nil
	}
	match := responseLineRE.FindStringSubmatch(line)
	if match == nil {
		return nil, &MalformedResponseLineError{Line: line}
	}
	version, code, message := match[1], match[2], match[3]
	logger.Debug("got response line", "version", version, "code", code, "message", message, "line", line)

	payload, err := ParsePayload(r)
	if err != nil {
		return nil, err
	}
	return &Response{Version: version, Code: code, Message: message, Payload: payload}, nil
}

// Bytes serialises the response back to wire form: the status line
// followed by headers in their original case and insertion order, a
// blank line, then the body.
func (resp *Response) Bytes() []byte {
	out := make([]byte, 0, 64+len(resp.Payload.Body))
	out = append(out, "HTTP/"...)
	out = append(out, resp.Version...)
	out = append(out, ' ')
	out = append(out, resp.Code...)
	out = append(out, ' ')
	out = append(out, resp.Message...)
	out = append(out, '\r', '\n')
	return resp.Payload.appendTo(out)
}
