package httpcodec

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseResponseRoundTrip(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok"
	r := bufio.NewReader(strings.NewReader(raw))
	resp, err := ParseResponse(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Version != "1.1" || resp.Code != "200" || resp.Message != "OK" {
		t.Fatalf("unexpected response line fields: %+v", resp)
	}
	if string(resp.Body()) != "ok" {
		t.Fatalf("expected body %q, got %q", "ok", resp.Body())
	}
	out := resp.Bytes()
	if !bytes.Equal(out, []byte(raw)) {
		t.Fatalf("round trip mismatch:\nwant %q\ngot  %q", raw, out)
	}
}

func TestParseResponseEndOfStream(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(""))
	resp, err := ParseResponse(r)
	if err != nil {
		t.Fatalf("unexpected error at end of stream: %v", err)
	}
	if resp != nil {
		t.Fatalf("expected nil response at end of stream, got %+v", resp)
	}
}

func TestParseResponseMalformedLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("NOT A RESPONSE\r\n\r\n"))
	_, err := ParseResponse(r)
	var malformed *MalformedResponseLineError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseLineError, got %v (%T)", err, err)
	}
}

func TestParseResponseStatusMessageWithSpaces(t *testing.T) {
	raw := "HTTP/1.1 404 Not Found\r\n\r\n"
	r := bufio.NewReader(strings.NewReader(raw))
	resp, err := ParseResponse(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Message != "Not Found" {
		t.Fatalf("expected multi-word status message preserved, got %q", resp.Message)
	}
}
