// Package cli implements the sharedlist command line subcommands.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"sharedlist/internal/client"
	"sharedlist/internal/identity"
	"sharedlist/internal/tui"
	"sharedlist/internal/view"
	"sharedlist/pkg/domain"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	doneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
)

// Runner carries the collaborators shared by every subcommand.
type Runner struct {
	Source   view.Source
	Identity *identity.Store
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
	Now      func() time.Time
	// TUI starts the interactive client; tests replace it.
	TUI func(v *view.View, author string) error
}

// NewRunner wires a runner talking to the server at addr.
func NewRunner(addr string, ids *identity.Store, stdin io.Reader, stdout, stderr io.Writer) *Runner {
	return &Runner{
		Source:   client.New(addr),
		Identity: ids,
		Stdin:    stdin,
		Stdout:   stdout,
		Stderr:   stderr,
		Now:      time.Now,
		TUI:      tui.Run,
	}
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func (r *Runner) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		r.PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		r.PrintHelp()
		return 0
	case "ls":
		return r.doList(ctx, a)
	case "add":
		if len(a) == 0 {
			return r.usage("usage: sharedlist add <text...>")
		}
		return r.doAdd(ctx, strings.Join(a, " "))
	case "toggle", "rm":
		if len(a) != 1 {
			return r.usage("usage: sharedlist " + cmd + " <id>")
		}
		id, err := strconv.ParseInt(a[0], 10, 64)
		if err != nil {
			return r.usage(cmd + ": not a number: " + a[0])
		}
		if cmd == "toggle" {
			return r.mutate("toggled", func(v *view.View) error { return v.Toggle(ctx, id) })
		}
		return r.mutate("removed", func(v *view.View) error { return v.Delete(ctx, id) })
	case "purge":
		return r.doPurge(ctx)
	case "clear":
		return r.doClear(ctx, a)
	case "whoami":
		return r.doWhoami()
	case "use":
		if len(a) == 0 {
			return r.usage("usage: sharedlist use <name...>")
		}
		return r.doUse(strings.Join(a, " "))
	case "tui":
		return r.doTUI()
	}
	r.fail("unknown subcommand: " + cmd)
	fmt.Fprintln(r.Stderr)
	r.PrintHelp()
	return 2
}

// PrintHelp writes usage to stdout.
func (r *Runner) PrintHelp() {
	fmt.Fprint(r.Stdout, `sharedlist - a shared shopping list

Usage:
  sharedlist [-addr host:port] <subcommand> [args]

Subcommands:
  ls [-sort alpha|recent] [-reverse]   Show the list
  add <text...>                        Add an item under your name
  toggle <id>                          Mark an item done / not done
  rm <id>                              Remove an item
  purge                                Remove every completed item
  clear [-yes]                         Remove every item (asks first)
  whoami                               Show the name items are added under
  use <name...>                        Remember the name to add items under
  tui                                  Interactive mode

Environment:
  SHAREDLIST_ADDR   server address (default localhost:8080)
  SHAREDLIST_USER   name override
`)
}

func (r *Runner) author() string {
	if r.Identity == nil {
		return ""
	}
	id, ok, err := r.Identity.Current()
	if err != nil {
		r.fail("identity: " + err.Error())
		return ""
	}
	if !ok {
		return ""
	}
	return id.Name
}

func (r *Runner) newView(opts ...view.Option) *view.View {
	if r.Now != nil {
		opts = append(opts, view.WithClock(r.Now))
	}
	return view.New(r.Source, opts...)
}

func (r *Runner) doList(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.SetOutput(r.Stderr)
	sortBy := fs.String("sort", string(view.SortRecent), "sort by alpha or recent")
	reverse := fs.Bool("reverse", false, "reverse the sort direction")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	dim, ok := view.ParseDimension(*sortBy)
	if !ok {
		return r.usage("ls: unknown sort " + *sortBy)
	}
	order := view.DefaultOrder(dim)
	if *reverse {
		order = order.Reverse()
	}
	v := r.newView(view.WithOrder(order))
	if err := v.Refresh(ctx); err != nil {
		r.fail("load: " + err.Error())
		return 1
	}
	r.render(v)
	return 0
}

func (r *Runner) doAdd(ctx context.Context, text string) int {
	if strings.TrimSpace(text) == "" {
		return r.usage("add: empty text")
	}
	return r.mutate("added", func(v *view.View) error { return v.Add(ctx, text, r.author()) })
}

func (r *Runner) mutate(verb string, fn func(v *view.View) error) int {
	v := r.newView()
	if err := fn(v); err != nil {
		r.fail(describe(err))
		if domain.IsValidation(err) {
			return 2
		}
		return 1
	}
	r.ok(verb)
	r.render(v)
	return 0
}

func (r *Runner) doPurge(ctx context.Context) int {
	v := r.newView()
	if err := v.Refresh(ctx); err != nil {
		r.fail("load: " + err.Error())
		return 1
	}
	deleted, err := v.DeleteCompleted(ctx)
	if err != nil {
		var pf *view.PartialFailureError
		if errors.As(err, &pf) {
			r.fail(fmt.Sprintf("removed %d completed item(s), then item %d failed: %s", len(pf.Deleted), pf.Failed, describe(pf.Err)))
		} else {
			r.fail(describe(err))
		}
		r.render(v)
		return 1
	}
	r.ok(fmt.Sprintf("removed %d completed item(s)", len(deleted)))
	r.render(v)
	return 0
}

func (r *Runner) doClear(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	fs.SetOutput(r.Stderr)
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	v := r.newView()
	if err := v.Refresh(ctx); err != nil {
		r.fail("load: " + err.Error())
		return 1
	}
	confirm := func() bool {
		if *yes {
			return true
		}
		fmt.Fprintf(r.Stdout, "Are you sure you want to clear all %d items? [y/N] ", len(v.Items()))
		line, _ := bufio.NewReader(r.Stdin).ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
	cleared, err := v.ClearAll(ctx, confirm)
	switch {
	case err != nil:
		r.fail(describe(err))
		return 1
	case !cleared && len(v.Items()) == 0:
		r.ok("list is already empty")
	case !cleared:
		fmt.Fprintln(r.Stdout, mutedStyle.Render("cancelled"))
	default:
		r.ok("cleared")
	}
	return 0
}

func (r *Runner) doWhoami() int {
	if r.Identity == nil {
		fmt.Fprintln(r.Stdout, domain.UnknownAuthor)
		return 0
	}
	id, ok, err := r.Identity.Current()
	if err != nil {
		r.fail(err.Error())
		return 1
	}
	if !ok {
		fmt.Fprintf(r.Stdout, "%s %s\n", domain.UnknownAuthor, mutedStyle.Render("(set one with `sharedlist use <name>`)"))
		return 0
	}
	fmt.Fprintf(r.Stdout, "%s %s\n", id.Name, mutedStyle.Render("("+id.Source+")"))
	return 0
}

func (r *Runner) doUse(name string) int {
	if r.Identity == nil {
		r.fail("no identity store configured")
		return 1
	}
	if err := r.Identity.Set(name); err != nil {
		r.fail(err.Error())
		return 2
	}
	r.ok("items will be added as " + strings.TrimSpace(name))
	return 0
}

func (r *Runner) doTUI() int {
	if r.TUI == nil {
		r.fail("interactive mode unavailable")
		return 1
	}
	author := r.author()
	if author == "" {
		author = domain.UnknownAuthor
	}
	if err := r.TUI(r.newView(), author); err != nil {
		r.fail(err.Error())
		return 1
	}
	return 0
}

func (r *Runner) render(v *view.View) {
	rows := v.Rows()
	done := 0
	for _, row := range rows {
		if row.Completed {
			done++
		}
	}
	lines := []string{
		fmt.Sprintf("%s   %s %d  %s %d   %s",
			titleStyle.Render("Shopping list"),
			successStyle.Render("✔"), done,
			pendingStyle.Render("•"), len(rows)-done,
			mutedStyle.Render(v.Order().String())),
		"",
	}
	if v.Status() == view.StatusEmpty {
		lines = append(lines, mutedStyle.Render("Your shopping list is empty. Add some items to get started!"))
	}
	for _, row := range rows {
		box, text := "☐", html.UnescapeString(row.Text)
		if row.Completed {
			box, text = successStyle.Render("☑"), doneStyle.Render(text)
		}
		lines = append(lines, fmt.Sprintf("%4d  %s %s  %s", row.ID, box, text,
			mutedStyle.Render(html.UnescapeString(row.AddedBy)+" · "+row.Label)))
	}
	lines = append(lines, "", mutedStyle.Render(v.Summary()))
	fmt.Fprintln(r.Stdout, panelStyle.Render(strings.Join(lines, "\n")))
}

func (r *Runner) usage(msg string) int {
	r.fail(msg)
	return 2
}

func (r *Runner) ok(msg string) {
	fmt.Fprintln(r.Stdout, successStyle.Render("✔ "+msg))
}

func (r *Runner) fail(msg string) {
	fmt.Fprintln(r.Stderr, errorStyle.Render("✖ "+msg))
}

// describe prefers the server's message for protocol errors.
func describe(err error) string {
	var se *client.StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}
