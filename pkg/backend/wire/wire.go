// Package wire implements the ad-hoc " # "-framed text protocol spoken
// between a Judge and the backend, and the bracket-and-quote list
// formats nested inside it. The framing is intentionally brittle
// against payloads that themselves contain " # " — that mirrors the
// system it was distilled from — but it is kept behind this package so
// a sturdier framing can replace it without touching callers.
package wire

import (
	"encoding/base64"
	"strconv"
	"strings"

	"laproxy/pkg/cluster"
)

const fieldSep = " # "

// EncodeUpdateRequest builds the "UPDATE # <serviceID> # <dataset>"
// request a Judge sends to push its buffered connections and ask for a
// refreshed model.
func EncodeUpdateRequest(serviceID string, dataset [][][]byte) string {
	return "UPDATE" + fieldSep + serviceID + fieldSep + EncodeDataset(dataset)
}

// DecodeUpdateRequest splits a raw request into its service id and
// dataset payload. ok is false if the command isn't UPDATE or fewer
// than three " # "-separated tokens are present, in which case the
// connection should be closed without a reply.
func DecodeUpdateRequest(raw string) (serviceID, payload string, ok bool) {
	tokens := strings.Split(strings.TrimSpace(raw), fieldSep)
	if len(tokens) < 3 || tokens[0] != "UPDATE" {
		return "", "", false
	}
	return tokens[1], tokens[2], true
}

// EncodeDataset renders a Judge's buffered per-connection packet lists
// as "[['b64p1', 'b64p2'], ['b64p1', ...], ...]".
func EncodeDataset(dataset [][][]byte) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, interaction := range dataset {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('[')
		for j, packet := range interaction {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('\'')
			b.WriteString(base64.StdEncoding.EncodeToString(packet))
			b.WriteByte('\'')
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}

// DecodeDataset parses the format produced by EncodeDataset back into
// raw packet lists, base64-decoding each entry. An empty or malformed
// payload yields a nil, empty dataset rather than an error: the
// bootstrap push "[[]]" is a single interaction with zero packets, not
// a parse failure.
func DecodeDataset(payload string) [][][]byte {
	inner := stripOuterBrackets(payload)
	if inner == "" {
		if payload == "[]" {
			return nil
		}
		// "[[]]" (or similar single-empty-interaction payloads)
		// still carries one interaction with zero packets.
		if strings.Count(payload, "[") >= 2 {
			return [][][]byte{{}}
		}
		return nil
	}

	groups := splitTopLevelBrackets(inner)
	dataset := make([][][]byte, 0, len(groups))
	for _, group := range groups {
		dataset = append(dataset, decodePacketGroup(group))
	}
	return dataset
}

func decodePacketGroup(group string) [][]byte {
	group = strings.TrimSpace(group)
	if group == "" {
		return [][]byte{}
	}
	quoted := strings.Split(group, ", ")
	packets := make([][]byte, 0, len(quoted))
	for _, q := range quoted {
		q = strings.Trim(q, "'")
		if q == "" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(q)
		if err != nil {
			continue
		}
		packets = append(packets, decoded)
	}
	return packets
}

// EncodeCentroids renders a centroid list as
// "[[f, f, ..., f], [f, ..., f]]", 32 decimals per centroid.
func EncodeCentroids(centroids []cluster.Point) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, c := range centroids {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(EncodeFloatList(c.Flatten()))
	}
	b.WriteByte(']')
	return b.String()
}

// EncodeFloatList renders a flat float slice as "[f, f, ..., f]".
func EncodeFloatList(values []float64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}

// DecodeCentroids parses the format produced by EncodeCentroids.
func DecodeCentroids(raw string) []cluster.Point {
	inner := stripOuterBrackets(raw)
	if inner == "" {
		return nil
	}
	groups := splitTopLevelBrackets(inner)
	centroids := make([]cluster.Point, 0, len(groups))
	for _, group := range groups {
		centroids = append(centroids, cluster.NewPoint(parseFloatCSV(group)))
	}
	return centroids
}

// EncodeBlocked renders a blocked index list as "[i, j, ...]".
func EncodeBlocked(blocked []int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range blocked {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteByte(']')
	return b.String()
}

// DecodeBlocked parses the format produced by EncodeBlocked.
func DecodeBlocked(raw string) []int {
	inner := strings.TrimSpace(raw)
	inner = strings.TrimPrefix(inner, "[")
	inner = strings.TrimSuffix(inner, "]")
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return nil
	}
	parts := strings.Split(inner, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

const (
	// ModeActive is the mode string meaning verdicts are enforced.
	ModeActive = "ACTIVE_MODE"
	// ModeSimulation is the mode string meaning verdicts are observed
	// only, never enforced.
	ModeSimulation = "SIMULATION_MODE"
)

// EncodeResponse builds the "<centroids> # <mode> # <blocked>" reply
// the backend sends before persisting a request's payload.
func EncodeResponse(centroids []cluster.Point, mode string, blocked []int) string {
	return EncodeCentroids(centroids) + fieldSep + mode + fieldSep + EncodeBlocked(blocked)
}

// DecodeResponse parses a backend reply. skip is true when the reply is
// empty, "[]", or has fewer than two " # "-separated sections — the
// bootstrap/no-op case, not an error, in which case the caller must
// leave its model state unchanged (aside from any dataset clear that
// already happened).
func DecodeResponse(raw string) (centroids []cluster.Point, mode string, blocked []int, skip bool) {
	trimmed := strings.TrimSpace(raw)
	sections := strings.Split(trimmed, fieldSep)
	if sections[0] == "" || sections[0] == "[]" || len(sections) < 2 {
		return nil, "", nil, true
	}
	centroids = DecodeCentroids(sections[0])
	mode = strings.TrimSpace(sections[1])
	if len(sections) >= 3 {
		blocked = DecodeBlocked(sections[2])
	}
	return centroids, mode, blocked, false
}

func parseFloatCSV(s string) []float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// stripOuterBrackets removes exactly one layer of enclosing "[" "]"
// from a trimmed string, returning "" if nothing remains.
func stripOuterBrackets(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	return strings.TrimSpace(s)
}

// splitTopLevelBrackets splits a comma-separated sequence of
// "[...], [...], ..." groups at top-level bracket boundaries, so commas
// inside a group don't split it.
func splitTopLevelBrackets(s string) []string {
	var groups []string
	depth := 0
	start := -1
	for i, r := range s {
		switch r {
		case '[':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case ']':
			depth--
			if depth == 0 && start >= 0 {
				groups = append(groups, s[start:i])
				start = -1
			}
		}
	}
	if len(groups) == 0 && strings.TrimSpace(s) != "" {
		// No brackets at all: a single flat group (used for e.g. a
		// lone centroid's float list reached via DecodeCentroids on
		// already-unwrapped input).
		groups = append(groups, s)
	}
	return groups
}
