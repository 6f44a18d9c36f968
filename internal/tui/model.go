// Package tui is an interactive terminal client for the shared list.
//
// Every key that changes the list sends a request through the view; the
// screen is redrawn from the server's answer, never from the keystroke.
package tui

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"sharedlist/internal/view"
)

const requestTimeout = 10 * time.Second

// rowItem adapts a view.Row to bubbles/list.Item.
type rowItem struct {
	view.Row
}

func (i rowItem) Title() string       { return html.UnescapeString(i.Text) }
func (i rowItem) Description() string { return html.UnescapeString(i.AddedBy) + " · " + i.Label }
func (i rowItem) FilterValue() string { return html.UnescapeString(i.Text) }

type itemDelegate struct{}

func (itemDelegate) Height() int                         { return 1 }
func (itemDelegate) Spacing() int                        { return 0 }
func (itemDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(rowItem)
	box, text := mutedStyle.Render(boxUnchecked), it.Title()
	if it.Completed {
		box, text = successStyle.Render(boxChecked), doneStyle.Render(text)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s  %s", prefix, box, text, mutedStyle.Render(it.Description()))
}

// doneMsg reports a finished round-trip.
type doneMsg struct {
	note string
	err  error
}

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeConfirmClear
)

var (
	keyAdd     = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	keyToggle  = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	keyDelete  = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	keyPurge   = key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "delete completed"))
	keyClear   = key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "clear all"))
	keyAlpha   = key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort a-z"))
	keyRecent  = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "sort recent"))
	keyRefresh = key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "refresh"))
	extraKeys  = []key.Binding{keyAdd, keyToggle, keyDelete, keyPurge, keyClear, keyAlpha, keyRecent, keyRefresh}
)

// Model is the bubbletea model.
type Model struct {
	view   *view.View
	author string
	list   list.Model
	input  textinput.Model
	mode   mode
	note   string
	err    error
}

// New builds a model over v. author is sent as addedBy on every add.
func New(v *view.View, author string) Model {
	l := list.New(nil, itemDelegate{}, 80, 20)
	l.SetShowHelp(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("item", "items")
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.AdditionalShortHelpKeys = func() []key.Binding { return extraKeys[:4] }
	l.AdditionalFullHelpKeys = func() []key.Binding { return extraKeys }

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What do we need?"
	ti.CharLimit = 200
	ti.Cursor.SetMode(cursor.CursorStatic)

	m := Model{view: v, author: author, list: l, input: ti}
	m.sync()
	return m
}

// Run starts the program on the alternate screen.
func Run(v *view.View, author string) error {
	_, err := tea.NewProgram(New(v, author), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.call("", func(ctx context.Context) error { return m.view.Refresh(ctx) })
}

// call runs fn off the UI goroutine and reports back with a doneMsg.
func (m Model) call(note string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return doneMsg{note: note, err: fn(ctx)}
	}
}

// sync rebuilds the list widget from the view cache.
func (m *Model) sync() {
	rows := m.view.Rows()
	items := make([]list.Item, len(rows))
	for i, r := range rows {
		items[i] = rowItem{r}
	}
	m.list.SetItems(items)
	m.list.Title = m.title()
}

func (m Model) title() string {
	items := m.view.Items()
	done := 0
	for _, it := range items {
		if it.Completed {
			done++
		}
	}
	return fmt.Sprintf("%s   %s %d  %s %d  %s %s",
		titleStyle.Render("Shopping list"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), len(items)-done,
		accentStyle.Render("sort"), m.view.Order(),
	)
}

func (m Model) selected() (rowItem, bool) {
	it, ok := m.list.SelectedItem().(rowItem)
	return it, ok
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h := msg.Height - 4
		if m.mode != modeBrowse {
			h -= 3
		}
		m.list.SetSize(msg.Width-4, h)
		return m, nil
	case doneMsg:
		m.err = msg.err
		m.note = msg.note
		m.sync()
		return m, nil
	}

	switch m.mode {
	case modeAdd:
		return m.updateAdd(msg)
	case modeConfirmClear:
		return m.updateConfirm(msg)
	}

	km, isKey := msg.(tea.KeyMsg)
	if !isKey || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	switch {
	case km.String() == "q" || km.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(km, keyAdd):
		m.mode = modeAdd
		m.input.SetValue("")
		return m, m.input.Focus()
	case key.Matches(km, keyToggle):
		if it, ok := m.selected(); ok {
			id := it.ID
			return m, m.call("", func(ctx context.Context) error { return m.view.Toggle(ctx, id) })
		}
		return m, nil
	case key.Matches(km, keyDelete):
		if it, ok := m.selected(); ok {
			id := it.ID
			return m, m.call("deleted "+it.Title(), func(ctx context.Context) error { return m.view.Delete(ctx, id) })
		}
		return m, nil
	case key.Matches(km, keyPurge):
		return m, m.call("deleted completed items", func(ctx context.Context) error {
			_, err := m.view.DeleteCompleted(ctx)
			return err
		})
	case key.Matches(km, keyClear):
		if len(m.view.Items()) > 0 {
			m.mode = modeConfirmClear
		}
		return m, nil
	case key.Matches(km, keyAlpha):
		m.view.SortBy(view.SortAlpha)
		m.sync()
		return m, nil
	case key.Matches(km, keyRecent):
		m.view.SortBy(view.SortRecent)
		m.sync()
		return m, nil
	case key.Matches(km, keyRefresh):
		return m, m.call("refreshed", func(ctx context.Context) error { return m.view.Refresh(ctx) })
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdd(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "enter":
			text := m.input.Value()
			if strings.TrimSpace(text) == "" {
				m.note = "text cannot be empty"
				return m, nil
			}
			m.mode = modeBrowse
			m.input.Blur()
			author := m.author
			return m, m.call("added "+strings.TrimSpace(text), func(ctx context.Context) error {
				return m.view.Add(ctx, text, author)
			})
		case "esc":
			m.mode = modeBrowse
			m.input.Blur()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.mode = modeBrowse
	if km.String() != "y" && km.String() != "Y" {
		m.note = "clear cancelled"
		return m, nil
	}
	return m, m.call("list cleared", func(ctx context.Context) error {
		_, err := m.view.ClearAll(ctx, func() bool { return true })
		return err
	})
}

func (m Model) View() string {
	var b strings.Builder
	switch m.view.Status() {
	case view.StatusLoading:
		b.WriteString(mutedStyle.Render("Loading…"))
	case view.StatusEmpty:
		b.WriteString(m.list.Title + "\n\n" + mutedStyle.Render("Your shopping list is empty. Press a to add something."))
	default:
		b.WriteString(m.list.View())
	}
	b.WriteString("\n" + mutedStyle.Render(m.view.Summary()))
	switch {
	case m.err != nil:
		b.WriteString("  " + errorStyle.Render("✖ "+m.err.Error()))
	case m.note != "":
		b.WriteString("  " + successStyle.Render(m.note))
	}
	switch m.mode {
	case modeAdd:
		b.WriteString("\n" + panelStyle.Render("Add item as "+m.author+"\n"+m.input.View()))
	case modeConfirmClear:
		b.WriteString("\n" + panelStyle.Render(errorStyle.Render("Clear every item? (y/N)")))
	}
	return panelStyle.Render(b.String())
}
