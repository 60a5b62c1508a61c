// Package app wires the configurator client together from its configuration.
package app

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/atinyakov/configurator/internal/client/credential"
	"github.com/atinyakov/configurator/internal/client/form"
	"github.com/atinyakov/configurator/internal/client/passcode"
	"github.com/atinyakov/configurator/internal/client/remote"
	"github.com/atinyakov/configurator/internal/client/session"
	"github.com/atinyakov/configurator/internal/client/shell"
	"github.com/atinyakov/configurator/internal/client/ui"
	"github.com/atinyakov/configurator/internal/config"
)

// App is a fully wired client.
type App struct {
	Session *session.Controller
	Form    *form.Form
	Store   *credential.Store
	Shell   *shell.Shell
}

// Option adjusts how New wires the client.
type Option func(*options)

type options struct {
	provider passcode.Provider
}

// WithProvider answers passcode prompts from p instead of the terminal.
func WithProvider(p passcode.Provider) Option {
	return func(o *options) { o.provider = p }
}

// New builds the client described by cfg. Operator input is read from in
// and everything the operator sees goes to out.
func New(cfg config.Client, in *os.File, out io.Writer, log *zap.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	raw, err := cfg.LoadSchema()
	if err != nil {
		return nil, err
	}

	lines := bufio.NewReader(in)
	provider := o.provider
	if provider == nil {
		provider = passcode.NewTerminalProvider(in, lines, out)
	}
	store := credential.NewStore(credential.NewFileKV(cfg.StateDir), log)
	acq := passcode.NewAcquirer(store, provider, log)
	spin := ui.NewSpinner(out, "Loading settings")

	ctrl := session.New(session.Config{Host: cfg.Host, Schema: raw}, session.Deps{
		Store:    store,
		Acquirer: acq,
		Client:   remote.NewClient(remote.NewHTTPClient(cfg.Timeout()), cfg.Host, log),
		Notifier: ui.NewNotifier(out),
		OnState:  spin.Track,
		Log:      log,
	})
	// the form renders against whatever schema the session was configured with
	schema, err := form.ParseSchema(ctrl.View().Schema)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", cfg.Schema, err)
	}
	f := form.New(schema, ctrl)

	return &App{
		Session: ctrl,
		Form:    f,
		Store:   store,
		Shell:   shell.New(ctrl, f, lines, out),
	}, nil
}
