package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sharedlist/internal/core"
	"sharedlist/internal/identity"
	"sharedlist/internal/view"
	"sharedlist/pkg/domain"
)

type harness struct {
	runner *Runner
	svc    *core.Service
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newHarness(t *testing.T, stdin string) *harness {
	t.Helper()
	t.Setenv(identity.EnvVar, "")
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine(0))
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	r := &Runner{
		Source:   svc,
		Identity: identity.NewStore(t.TempDir()),
		Stdin:    strings.NewReader(stdin),
		Stdout:   out,
		Stderr:   errOut,
		Now:      func() time.Time { return time.Now() },
	}
	return &harness{runner: r, svc: svc, out: out, errOut: errOut}
}

func (h *harness) run(t *testing.T, args ...string) int {
	t.Helper()
	h.out.Reset()
	h.errOut.Reset()
	return h.runner.Run(context.Background(), args)
}

func TestRunUsage(t *testing.T) {
	h := newHarness(t, "")
	if code := h.run(t); code != 2 {
		t.Fatalf("expected usage exit, got %d", code)
	}
	if code := h.run(t, "help"); code != 0 || !strings.Contains(h.out.String(), "Subcommands") {
		t.Fatalf("help failed: %d %q", code, h.out.String())
	}
	if code := h.run(t, "frobnicate"); code != 2 || !strings.Contains(h.errOut.String(), "unknown subcommand") {
		t.Fatalf("unknown subcommand: %d %q", code, h.errOut.String())
	}
	for _, args := range [][]string{{"add"}, {"toggle"}, {"rm", "x"}, {"use"}, {"ls", "-sort", "size"}} {
		if code := h.run(t, args...); code != 2 {
			t.Fatalf("%v: expected usage exit, got %d", args, code)
		}
	}
}

func TestAddUsesIdentity(t *testing.T) {
	h := newHarness(t, "")
	if code := h.run(t, "use", "Grandma", "Jo"); code != 0 {
		t.Fatalf("use failed: %s", h.errOut.String())
	}
	if code := h.run(t, "whoami"); code != 0 || !strings.Contains(h.out.String(), "Grandma Jo") {
		t.Fatalf("whoami: %q", h.out.String())
	}
	if code := h.run(t, "add", "Oat", "milk"); code != 0 {
		t.Fatalf("add failed: %s", h.errOut.String())
	}
	list, _ := h.svc.Read(context.Background())
	if len(list) != 1 || list[0].Text != "Oat milk" || list[0].AddedBy != "Grandma Jo" {
		t.Fatalf("unexpected list %+v", list)
	}
	if !strings.Contains(h.out.String(), "Oat milk") || !strings.Contains(h.out.String(), "1 of 1 items") {
		t.Fatalf("add should print the list: %q", h.out.String())
	}
}

func TestAddWithoutIdentityIsUnknown(t *testing.T) {
	h := newHarness(t, "")
	if code := h.run(t, "whoami"); code != 0 || !strings.Contains(h.out.String(), domain.UnknownAuthor) {
		t.Fatalf("whoami without identity: %q", h.out.String())
	}
	h.run(t, "add", "Eggs")
	list, _ := h.svc.Read(context.Background())
	if list[0].AddedBy != domain.UnknownAuthor {
		t.Fatalf("expected Unknown author, got %q", list[0].AddedBy)
	}
}

func TestToggleRemoveAndList(t *testing.T) {
	h := newHarness(t, "")
	for _, text := range []string{"Milk", "apples", "Bread"} {
		if code := h.run(t, "add", text); code != 0 {
			t.Fatalf("add %s: %s", text, h.errOut.String())
		}
	}
	if code := h.run(t, "toggle", "1"); code != 0 {
		t.Fatalf("toggle: %s", h.errOut.String())
	}
	if code := h.run(t, "rm", "2"); code != 0 {
		t.Fatalf("rm: %s", h.errOut.String())
	}
	if code := h.run(t, "ls", "-sort", "alpha"); code != 0 {
		t.Fatalf("ls: %s", h.errOut.String())
	}
	out := h.out.String()
	if strings.Contains(out, "apples") {
		t.Fatalf("removed item still listed: %q", out)
	}
	if strings.Index(out, "Bread") > strings.Index(out, "Milk") {
		t.Fatalf("alpha sort not applied: %q", out)
	}
	if !strings.Contains(out, "1 of 2 items") {
		t.Fatalf("summary missing: %q", out)
	}
	h.run(t, "ls", "-sort", "alpha", "-reverse")
	out = h.out.String()
	if strings.Index(out, "Milk") > strings.Index(out, "Bread") {
		t.Fatalf("reverse not applied: %q", out)
	}
}

func TestAddBlankTextIsRejected(t *testing.T) {
	h := newHarness(t, "")
	if code := h.run(t, "add", "  "); code != 2 {
		t.Fatalf("expected usage exit, got %d", code)
	}
}

func TestClearAsksFirst(t *testing.T) {
	h := newHarness(t, "n\n")
	if code := h.run(t, "clear"); code != 0 || !strings.Contains(h.out.String(), "already empty") {
		t.Fatalf("clear of empty list: %d %q", code, h.out.String())
	}
	h.run(t, "add", "Milk")
	if code := h.run(t, "clear"); code != 0 || !strings.Contains(h.out.String(), "cancelled") {
		t.Fatalf("declined clear: %d %q", code, h.out.String())
	}
	if list, _ := h.svc.Read(context.Background()); len(list) != 1 {
		t.Fatalf("declined clear must not reach the server")
	}

	h.runner.Stdin = strings.NewReader("yes\n")
	if code := h.run(t, "clear"); code != 0 || !strings.Contains(h.out.String(), "cleared") {
		t.Fatalf("confirmed clear: %d %q", code, h.out.String())
	}
	if list, _ := h.svc.Read(context.Background()); len(list) != 0 {
		t.Fatalf("list not cleared")
	}

	h.run(t, "add", "Eggs")
	h.runner.Stdin = strings.NewReader("")
	if code := h.run(t, "clear", "-yes"); code != 0 {
		t.Fatalf("clear -yes: %s", h.errOut.String())
	}
	if list, _ := h.svc.Read(context.Background()); len(list) != 0 {
		t.Fatalf("-yes should skip the prompt")
	}
}

func TestPurgeRemovesCompleted(t *testing.T) {
	h := newHarness(t, "")
	for _, text := range []string{"a", "b", "c"} {
		h.run(t, "add", text)
	}
	h.run(t, "toggle", "1")
	h.run(t, "toggle", "3")
	if code := h.run(t, "purge"); code != 0 || !strings.Contains(h.out.String(), "removed 2 completed") {
		t.Fatalf("purge: %d %q %q", code, h.out.String(), h.errOut.String())
	}
	list, _ := h.svc.Read(context.Background())
	if len(list) != 1 || list[0].ID != 2 {
		t.Fatalf("unexpected list after purge %+v", list)
	}
}

func TestTUIReceivesAuthor(t *testing.T) {
	h := newHarness(t, "")
	var got string
	h.runner.TUI = func(_ *view.View, author string) error {
		got = author
		return nil
	}
	if code := h.run(t, "tui"); code != 0 || got != domain.UnknownAuthor {
		t.Fatalf("tui: code=%d author=%q", code, got)
	}
	h.runner.TUI = func(*view.View, string) error { return errors.New("no tty") }
	if code := h.run(t, "tui"); code != 1 {
		t.Fatalf("tui failure should exit 1, got %d", code)
	}
}

type downSource struct{ *core.Service }

func (downSource) Read(context.Context) (domain.List, error) {
	return nil, domain.StorageError{Op: "remote", Err: errors.New("storage error")}
}

func TestListServerFailure(t *testing.T) {
	h := newHarness(t, "")
	h.runner.Source = downSource{h.svc}
	if code := h.run(t, "ls"); code != 1 || !strings.Contains(h.errOut.String(), "load") {
		t.Fatalf("expected load failure, got %d %q", code, h.errOut.String())
	}
}
