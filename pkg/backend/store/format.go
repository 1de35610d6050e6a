package store

import (
	"fmt"
	"strconv"
	"strings"

	"laproxy/pkg/cluster"
	"laproxy/pkg/backend/wire"
)

// FormatPoint renders a Point as one points.txt line: "[f, f, ..., f]"
// with exactly 2*cluster.Dimensions floats.
func FormatPoint(p cluster.Point) string {
	return wire.EncodeFloatList(p.Flatten())
}

// ParsePoint parses one points.txt line back into a Point.
func ParsePoint(line string) cluster.Point {
	inner := strings.TrimSpace(line)
	inner = strings.TrimPrefix(inner, "[")
	inner = strings.TrimSuffix(inner, "]")
	if inner == "" {
		return cluster.Point{}
	}
	parts := strings.Split(inner, ",")
	values := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err == nil {
			values = append(values, v)
		}
	}
	return cluster.NewPoint(values)
}

// FormatConversation renders one connection's recorded (inbound)
// packet list as one convs.txt line: a Python-bytes-repr-styled list of
// byte strings, e.g. "[b'GET / HTTP/1.1', b'\\x00\\x01']".
func FormatConversation(packets [][]byte) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, packet := range packets {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pyBytesRepr(packet))
	}
	b.WriteByte(']')
	return b.String()
}

// pyBytesRepr renders b the way Python's repr() renders a bytes object:
// printable ASCII passes through, \t \n \r \\ and the quote character
// are backslash-escaped, everything else becomes \xHH. A double quote
// is only used as the enclosing quote when b contains a single quote
// and no double quote; single quote is the default.
func pyBytesRepr(b []byte) string {
	useDouble := false
	hasSingle, hasDouble := false, false
	for _, c := range b {
		if c == '\'' {
			hasSingle = true
		}
		if c == '"' {
			hasDouble = true
		}
	}
	if hasSingle && !hasDouble {
		useDouble = true
	}
	quote := byte('\'')
	if useDouble {
		quote = '"'
	}

	var out strings.Builder
	out.WriteString("b")
	out.WriteByte(quote)
	for _, c := range b {
		switch {
		case c == quote || c == '\\':
			out.WriteByte('\\')
			out.WriteByte(c)
		case c == '\t':
			out.WriteString(`\t`)
		case c == '\n':
			out.WriteString(`\n`)
		case c == '\r':
			out.WriteString(`\r`)
		case c >= 0x20 && c < 0x7f:
			out.WriteByte(c)
		default:
			fmt.Fprintf(&out, `\x%02x`, c)
		}
	}
	out.WriteByte(quote)
	return out.String()
}
