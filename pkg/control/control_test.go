package control

import (
	"strings"
	"testing"

	"laproxy/pkg/backend"
)

func newTestInterpreter(t *testing.T) (*Interpreter, *backend.Backend) {
	t.Helper()
	b := backend.New(backend.Config{DataDir: t.TempDir()})
	return New(b, nil), b
}

func TestCommandsBeforeServiceSelectedRequireOne(t *testing.T) {
	it, _ := newTestInterpreter(t)
	if got := it.Execute("SET_MODE ACTIVE_MODE"); got != "Please set a service first" {
		t.Fatalf("want guard message, got %q", got)
	}
	if got := it.Execute("CHECK_EXAMPLES"); got != "Please set a service first" {
		t.Fatalf("want guard message, got %q", got)
	}
}

func TestSetServiceCreatesAndSelects(t *testing.T) {
	it, b := newTestInterpreter(t)
	it.Execute("SET_SERVICE 1234")
	if _, ok := b.Service("1234"); !ok {
		t.Fatalf("expected service 1234 to be created")
	}
	if got := it.Execute("SET_MODE ACTIVE_MODE"); got != "" {
		t.Fatalf("expected empty response, got %q", got)
	}
	svc, _ := b.Service("1234")
	_, mode, _ := svc.Describe()
	if mode != "ACTIVE_MODE" {
		t.Fatalf("expected mode to be set, got %q", mode)
	}
}

func TestSetBlockedParsesList(t *testing.T) {
	it, b := newTestInterpreter(t)
	it.Execute("SET_SERVICE 1234")
	it.Execute("SET_BLOCKED [0, 2, 5]")
	svc, _ := b.Service("1234")
	_, _, blocked := svc.Describe()
	want := []int{0, 2, 5}
	if len(blocked) != len(want) {
		t.Fatalf("want %v, got %v", want, blocked)
	}
	for i := range want {
		if blocked[i] != want[i] {
			t.Fatalf("want %v, got %v", want, blocked)
		}
	}
}

func TestCheckExamplesEmptyBeforeAnyRefit(t *testing.T) {
	it, _ := newTestInterpreter(t)
	it.Execute("SET_SERVICE 1234")
	if got := it.Execute("CHECK_EXAMPLES"); got != "" {
		t.Fatalf("expected no examples before a refit has run, got %q", got)
	}
}

func TestShutDownInvokesCallback(t *testing.T) {
	called := false
	b := backend.New(backend.Config{DataDir: t.TempDir()})
	it := New(b, func() { called = true })
	got := it.Execute("SHUT_DOWN")
	if !called {
		t.Fatalf("expected shutdown callback to run")
	}
	if !strings.Contains(got, "shutting down") {
		t.Fatalf("unexpected response: %q", got)
	}
}

func TestUnknownCommand(t *testing.T) {
	it, _ := newTestInterpreter(t)
	it.Execute("SET_SERVICE 1234")
	if got := it.Execute("FROB"); got != "Unknown command" {
		t.Fatalf("want Unknown command, got %q", got)
	}
}

func TestStatusReflectsSelection(t *testing.T) {
	it, _ := newTestInterpreter(t)
	if !strings.Contains(it.Status(), "Current Service:") {
		t.Fatalf("expected a status banner, got %q", it.Status())
	}
	it.Execute("SET_SERVICE abc")
	if !strings.Contains(it.Status(), "abc") {
		t.Fatalf("expected status to mention selected service, got %q", it.Status())
	}
}
