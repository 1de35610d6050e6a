// Package control implements the operator line interface: a small
// command interpreter, polymorphic over its line source (stdin today,
// an admin socket later without changing the interpreter), that lets
// an operator select a service, adjust its mode and blocked list, and
// inspect recent examples.
package control

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"laproxy/pkg/backend"
)

var blockedListRE = regexp.MustCompile(`^\[(.*)\]$`)

// Interpreter holds the "current service" selection and dispatches
// operator commands against a backend.
type Interpreter struct {
	backend    *backend.Backend
	current    string
	hasCurrent bool
	onShutdown func()
}

// New constructs an Interpreter with no service selected. onShutdown is
// invoked once, when SHUT_DOWN is received; it may be nil.
func New(b *backend.Backend, onShutdown func()) *Interpreter {
	return &Interpreter{backend: b, onShutdown: onShutdown}
}

// Status renders the current-service banner shown before each prompt,
// reproducing the original operator menu's header line.
func (it *Interpreter) Status() string {
	if !it.hasCurrent {
		return "Current Service:  \t N. Clusters: 0 \t Mode:  \t Blocked: []"
	}
	svc, ok := it.backend.Service(it.current)
	if !ok {
		return "Current Service:  \t N. Clusters: 0 \t Mode:  \t Blocked: []"
	}
	clusters, mode, blocked := svc.Describe()
	return fmt.Sprintf("Current Service: %s \t N. Clusters: %d \t Mode: %s \t Blocked: %s",
		it.current, clusters, mode, formatIntList(blocked))
}

// Execute runs one operator command and returns the text to display in
// response (possibly empty).
func (it *Interpreter) Execute(line string) string {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}

	switch fields[0] {
	case "SET_SERVICE":
		if len(fields) < 2 {
			return "SET_SERVICE requires a service id"
		}
		it.backend.EnsureService(fields[1])
		it.current = fields[1]
		it.hasCurrent = true
		return ""
	case "SHUT_DOWN":
		if it.onShutdown != nil {
			it.onShutdown()
		}
		return "shutting down"
	}

	if !it.hasCurrent {
		return "Please set a service first"
	}
	svc, ok := it.backend.Service(it.current)
	if !ok {
		return "Please set a service first"
	}

	switch fields[0] {
	case "SET_MODE":
		if len(fields) < 2 {
			return "SET_MODE requires ACTIVE_MODE or SIMULATION_MODE"
		}
		svc.SetMode(fields[1])
		return ""
	case "SET_BLOCKED":
		rest := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		svc.SetBlocked(parseBlockedList(rest))
		return ""
	case "CHECK_EXAMPLES":
		return formatExamples(svc)
	default:
		return "Unknown command"
	}
}

// parseBlockedList parses the "[i, j, k]" argument to SET_BLOCKED,
// applied verbatim with no transitivity.
func parseBlockedList(raw string) []int {
	raw = strings.TrimSpace(raw)
	m := blockedListRE.FindStringSubmatch(raw)
	body := raw
	if m != nil {
		body = m[1]
	}
	body = strings.ReplaceAll(body, " ", "")
	if body == "" {
		return nil
	}
	parts := strings.Split(body, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
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

func formatExamples(svc *backend.Service) string {
	blocked, examples := svc.ExamplesSnapshot()
	var b strings.Builder
	for i, example := range examples {
		tag := "[ALLOWED]"
		if containsInt(blocked, i) {
			tag = "[BLOCKED]"
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(tag)
		b.WriteByte(' ')
		b.WriteString(example)
	}
	return b.String()
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func formatIntList(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
