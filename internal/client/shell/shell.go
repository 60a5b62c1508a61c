// Package shell is the interactive front end of the configurator: a line
// oriented loop over a session and its settings form.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atinyakov/configurator/internal/client/form"
	"github.com/atinyakov/configurator/internal/client/session"
	"github.com/atinyakov/configurator/internal/client/settings"
	"github.com/atinyakov/configurator/internal/client/ui"
)

// DefaultPrompt precedes every command line.
const DefaultPrompt = "configurator> "

// Controller is the session the shell drives.
type Controller interface {
	Start(ctx context.Context) session.State
	Retry(ctx context.Context) session.State
	Logout(ctx context.Context) session.State
	View() session.View
}

// Shell reads commands from in and writes results to out.
type Shell struct {
	Prompt string
	ctrl   Controller
	form   *form.Form
	in     *bufio.Reader
	out    io.Writer
}

// New returns a Shell. in must be the reader the passcode prompt shares.
func New(ctrl Controller, f *form.Form, in *bufio.Reader, out io.Writer) *Shell {
	return &Shell{Prompt: DefaultPrompt, ctrl: ctrl, form: f, in: in, out: out}
}

// Run starts the session and processes commands until exit, end of input
// or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	s.report(s.ctrl.Start(ctx))

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(s.out, s.Prompt)
		line, err := s.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read command: %w", err)
		}
		eof := errors.Is(err, io.EOF)
		if strings.TrimSpace(line) == "" {
			if eof {
				fmt.Fprintln(s.out)
				return nil
			}
			continue
		}
		if done := s.Exec(ctx, line); done || eof {
			return nil
		}
	}
}

// Exec runs one command line and reports whether the shell should stop.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	name, rest := cut(line)
	switch name {
	case "help", "?":
		s.help()
	case "show":
		s.show()
	case "status":
		fmt.Fprintln(s.out, "state:", s.ctrl.View().State)
	case "set":
		path, value := cut(rest)
		if path == "" {
			fmt.Fprintln(s.out, "Usage: set <field> <value>")
			return false
		}
		s.edit(func(cur *settings.Settings) (*settings.Settings, error) { return s.form.Set(cur, path, value) })
	case "unset":
		path, _ := cut(rest)
		if path == "" {
			fmt.Fprintln(s.out, "Usage: unset <field>")
			return false
		}
		s.edit(func(cur *settings.Settings) (*settings.Settings, error) { return s.form.Unset(cur, path) })
	case "submit":
		cur, ok := s.ready()
		if !ok {
			return false
		}
		s.form.Submit(ctx, cur)
	case "retry":
		if s.ctrl.View().State != session.FetchFailed {
			fmt.Fprintln(s.out, "Nothing to retry.")
			return false
		}
		s.report(s.ctrl.Retry(ctx))
	case "login":
		if s.ctrl.View().State != session.AwaitingPasscode {
			fmt.Fprintln(s.out, "Already logged in. Use 'logout' to switch passcodes.")
			return false
		}
		s.report(s.ctrl.Start(ctx))
	case "logout":
		fmt.Fprintln(s.out, ui.Info.Sprint("Logged out."))
		s.report(s.ctrl.Logout(ctx))
	case "exit", "quit":
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command %s. Type 'help' for the list.\n", ui.Highlight.Sprint(name))
	}
	return false
}

func (s *Shell) help() {
	fmt.Fprintln(s.out, "Available commands:")
	fmt.Fprintln(s.out, "  show                  print the settings form")
	fmt.Fprintln(s.out, "  set <field> <value>   edit a field, e.g. set YouTube.PollingRate 30")
	fmt.Fprintln(s.out, "  unset <field>         remove a field")
	fmt.Fprintln(s.out, "  submit                validate and save the settings")
	fmt.Fprintln(s.out, "  retry                 reload settings after a failed fetch")
	fmt.Fprintln(s.out, "  login                 enter a passcode")
	fmt.Fprintln(s.out, "  logout                forget the passcode and start over")
	fmt.Fprintln(s.out, "  status                print the session state")
	fmt.Fprintln(s.out, "  exit                  leave the shell")
}

func (s *Shell) show() {
	cur, ok := s.ready()
	if !ok {
		return
	}
	if err := s.form.Render(s.out, cur); err != nil {
		fmt.Fprintln(s.out, ui.Error.Sprint("✗"), err)
	}
}

func (s *Shell) edit(fn func(*settings.Settings) (*settings.Settings, error)) {
	cur, ok := s.ready()
	if !ok {
		return
	}
	if _, err := fn(cur); err != nil {
		fmt.Fprintln(s.out, ui.Error.Sprint("✗"), err)
	}
}

// ready returns the working settings, or explains why there are none.
func (s *Shell) ready() (*settings.Settings, bool) {
	v := s.ctrl.View()
	if v.State == session.Ready {
		return v.Settings, true
	}
	s.report(v.State)
	return nil, false
}

func (s *Shell) report(state session.State) {
	switch state {
	case session.Ready:
		fmt.Fprintln(s.out, ui.Success.Sprint("✓"), "Settings loaded. Type 'show' to see them.")
	case session.AwaitingPasscode:
		fmt.Fprintln(s.out, ui.Warning.Sprint("⚠"), "No passcode given. Type 'login' to enter one.")
	case session.FetchFailed:
		fmt.Fprintln(s.out, ui.Error.Sprint("✗"), "Could not load settings. Type 'retry' to try again.")
	case session.Loading:
		fmt.Fprintln(s.out, ui.Muted.Sprint("Loading..."))
	default:
		fmt.Fprintln(s.out, "state:", state)
	}
}

// cut splits off the first whitespace separated word of line.
func cut(line string) (string, string) {
	line = strings.TrimSpace(line)
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}
