package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"sharedlist/internal/core"
	"sharedlist/internal/view"
)

func newModel(t *testing.T) (Model, *core.Service) {
	t.Helper()
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine(0))
	m := New(view.New(svc), "Ana")
	m = step(t, m, m.Init()())
	return m, svc
}

// step feeds msg to the model and runs any resulting command once, feeding
// back its doneMsg so round-trips complete synchronously.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	if cmd == nil {
		return model
	}
	if done, ok := cmd().(doneMsg); ok {
		next, _ = model.Update(done)
		model = next.(Model)
	}
	return model
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		next, _ := m.Update(keys(string(r)))
		m = next.(Model)
	}
	return m
}

func TestModelInitialLoadShowsEmptyState(t *testing.T) {
	m, _ := newModel(t)
	if m.view.Status() != view.StatusEmpty {
		t.Fatalf("expected empty status, got %s", m.view.Status())
	}
	if !strings.Contains(m.View(), "empty") {
		t.Fatalf("expected empty-state message in %q", m.View())
	}
}

func TestModelAddToggleDelete(t *testing.T) {
	m, svc := newModel(t)
	m = step(t, m, keys("a"))
	if m.mode != modeAdd {
		t.Fatalf("expected add mode")
	}
	m = typeText(t, m, "Milk")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeBrowse || m.err != nil {
		t.Fatalf("add failed: mode=%v err=%v", m.mode, m.err)
	}
	list, _ := svc.Read(t.Context())
	if len(list) != 1 || list[0].Text != "Milk" || list[0].AddedBy != "Ana" {
		t.Fatalf("server did not receive add: %+v", list)
	}
	if len(m.list.Items()) != 1 {
		t.Fatalf("widget not synced: %d items", len(m.list.Items()))
	}

	m = step(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	list, _ = svc.Read(t.Context())
	if !list[0].Completed {
		t.Fatalf("toggle not sent")
	}
	if !strings.Contains(m.View(), "0 of 1 items") {
		t.Fatalf("summary not updated: %q", m.View())
	}

	m = step(t, m, keys("d"))
	list, _ = svc.Read(t.Context())
	if len(list) != 0 || m.view.Status() != view.StatusEmpty {
		t.Fatalf("delete not applied: %+v", list)
	}
}

func TestModelBlankAddStaysInAddMode(t *testing.T) {
	m, svc := newModel(t)
	m = step(t, m, keys("a"))
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeAdd || m.note == "" {
		t.Fatalf("blank add should be refused locally")
	}
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeBrowse {
		t.Fatalf("esc should leave add mode")
	}
	if list, _ := svc.Read(t.Context()); len(list) != 0 {
		t.Fatalf("nothing should have been sent")
	}
}

func TestModelClearAllNeedsConfirmation(t *testing.T) {
	m, svc := newModel(t)
	if _, err := svc.Add(t.Context(), "Milk", "Bo"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	m = step(t, m, keys("g"))
	m = step(t, m, keys("X"))
	if m.mode != modeConfirmClear {
		t.Fatalf("expected confirmation prompt")
	}
	m = step(t, m, keys("n"))
	if list, _ := svc.Read(t.Context()); len(list) != 1 {
		t.Fatalf("declined clear must not reach the server")
	}
	m = step(t, m, keys("X"))
	m = step(t, m, keys("y"))
	if list, _ := svc.Read(t.Context()); len(list) != 0 {
		t.Fatalf("confirmed clear not sent")
	}
	if m.note != "list cleared" {
		t.Fatalf("unexpected note %q", m.note)
	}
}

func TestModelSortKeys(t *testing.T) {
	m, _ := newModel(t)
	m = step(t, m, keys("s"))
	if o := m.view.Order(); o != view.DefaultOrder(view.SortAlpha) {
		t.Fatalf("expected alpha ascending, got %v", o)
	}
	m = step(t, m, keys("s"))
	if !m.view.Order().Descending {
		t.Fatalf("second s should flip direction")
	}
	m = step(t, m, keys("r"))
	if m.view.Order() != view.DefaultOrder(view.SortRecent) {
		t.Fatalf("r should reset to recent default")
	}
	if !strings.Contains(m.list.Title, "recent desc") {
		t.Fatalf("title should show order: %q", m.list.Title)
	}
}

func TestModelQuit(t *testing.T) {
	m, _ := newModel(t)
	_, cmd := m.Update(keys("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
