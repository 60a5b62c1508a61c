package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"

	"github.com/atinyakov/configurator/internal/client/session"
)

// Notifier prints session notices, one block per notice.
type Notifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewNotifier returns a Notifier writing to out.
func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{out: out}
}

// Notify implements session.Notifier.
func (n *Notifier) Notify(notice session.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, FormatNotice(notice))
	for _, d := range notice.Details {
		fmt.Fprintln(n.out, "  "+Muted.Sprint("- ")+d)
	}
}

// FormatNotice renders the headline of a notice with its status mark.
func FormatNotice(notice session.Notice) string {
	switch notice.Kind {
	case session.UpdateSucceeded:
		return Success.Sprint("✓") + " " + notice.Message
	case session.UpdateFailed:
		return Error.Sprint("✗") + " " + notice.Message
	default:
		return Warning.Sprint("⚠") + " " + notice.Message
	}
}

// Spinner is the loading indicator shown while settings are fetched.
type Spinner struct {
	mu      sync.Mutex
	s       *spinner.Spinner
	enabled bool
}

// NewSpinner returns a stopped spinner drawing to out. The spinner
// stays silent when out is not a terminal.
func NewSpinner(out io.Writer, message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.Suffix = " " + message
	_ = s.Color("cyan")
	f, ok := out.(*os.File)
	return &Spinner{s: s, enabled: ok && term.IsTerminal(int(f.Fd()))}
}

// Track starts the spinner on Loading and stops it on any other state.
// It fits session.Deps.OnState.
func (sp *Spinner) Track(state session.State) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if !sp.enabled {
		return
	}
	if state == session.Loading {
		sp.s.Start()
		return
	}
	sp.s.Stop()
}

// Active reports whether the spinner is running.
func (sp *Spinner) Active() bool {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.s.Active()
}
