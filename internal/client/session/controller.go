// Package session drives the configurator: passcode, fetch, local edits and
// write-back, plus logout.
package session

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/configurator/internal/client/remote"
	"github.com/atinyakov/configurator/internal/client/settings"
)

// Config is the explicit configuration of a session.
type Config struct {
	// Host of the settings service, e.g. "localhost:5000".
	Host string
	// Schema of the settings form. Nil means the bundled schema.
	Schema json.RawMessage
}

// Acquirer yields the current passcode, prompting for one when absent.
type Acquirer interface {
	Ensure(ctx context.Context) (string, bool)
}

// CredentialStore is the part of the credential store logout needs.
type CredentialStore interface {
	Clear()
}

// SettingsClient reads and writes the document bound to a passcode.
type SettingsClient interface {
	Fetch(ctx context.Context, passcode string) (*settings.Settings, error)
	Update(ctx context.Context, passcode string, s *settings.Settings) bool
}

// Deps are the collaborators of a Controller. Client defaults to a
// remote.Client for Config.Host; Notifier, OnState and Log default to no-ops.
type Deps struct {
	Store    CredentialStore
	Acquirer Acquirer
	Client   SettingsClient
	Notifier Notifier
	// OnState is called outside the lock after each state transition.
	OnState  func(State)
	Log      *zap.Logger
}

// View is a snapshot of the session for rendering.
type View struct {
	State State
	// Settings is a private copy of the working settings; nil unless Ready.
	Settings *settings.Settings
	Schema   json.RawMessage
}

// Loading reports whether only a loading indicator should be shown.
func (v View) Loading() bool {
	return v.State == AwaitingPasscode || v.State == Loading
}

// Controller owns the working settings and the session state machine.
//
// Network calls run outside the lock and are tagged with the generation they
// started in. Logout bumps the generation, so results that arrive afterwards
// are dropped.
type Controller struct {
	cfg    Config
	store  CredentialStore
	acq    Acquirer
	client SettingsClient
	notify Notifier
	watch  func(State)
	log    *zap.Logger

	mu       sync.Mutex
	state    State
	passcode string
	working  *settings.Settings
	gen      uint64
	id       string
}

// New returns a Controller in the Uninitialized state.
func New(cfg Config, deps Deps) *Controller {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	client := deps.Client
	if client == nil {
		client = remote.NewClient(http.DefaultClient, cfg.Host, log)
	}
	notify := deps.Notifier
	if notify == nil {
		notify = NotifierFunc(func(Notice) {})
	}
	watch := deps.OnState
	if watch == nil {
		watch = func(State) {}
	}
	return &Controller{
		cfg:    cfg,
		watch:  watch,
		store:  deps.Store,
		acq:    deps.Acquirer,
		client: client,
		notify: notify,
		log:    log,
		state:  Uninitialized,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns a snapshot for rendering.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{State: c.state, Schema: c.cfg.Schema}
	if c.state == Ready {
		v.Settings, _ = c.clone(c.working)
	}
	return v
}

// Start mounts the session: it discards any previous session, makes sure a
// passcode is present and fetches the settings bound to it. It returns the
// state the session settled in, which is AwaitingPasscode when the operator
// gave no passcode.
func (c *Controller) Start(ctx context.Context) State {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.id = uuid.NewString()
	c.state = AwaitingPasscode
	c.passcode = ""
	c.working = nil
	log := c.log.With(zap.String("session", c.id))
	c.mu.Unlock()
	c.watch(AwaitingPasscode)

	p, ok := c.acq.Ensure(ctx)

	c.mu.Lock()
	if gen != c.gen {
		defer c.mu.Unlock()
		return c.state
	}
	if !ok {
		c.mu.Unlock()
		log.Debug("no passcode available")
		return AwaitingPasscode
	}
	c.passcode = p
	c.state = Loading
	c.mu.Unlock()
	c.watch(Loading)

	return c.fetch(ctx, gen, p)
}

// Retry re-issues the fetch after a failure. It is a no-op in other states.
func (c *Controller) Retry(ctx context.Context) State {
	c.mu.Lock()
	if c.state != FetchFailed {
		defer c.mu.Unlock()
		return c.state
	}
	c.state = Loading
	gen, p := c.gen, c.passcode
	c.mu.Unlock()
	c.watch(Loading)

	return c.fetch(ctx, gen, p)
}

func (c *Controller) fetch(ctx context.Context, gen uint64, passcode string) State {
	s, err := c.client.Fetch(ctx, passcode)

	c.mu.Lock()
	log := c.log.With(zap.String("session", c.id))
	if gen != c.gen {
		defer c.mu.Unlock()
		log.Debug("dropping fetch result from a previous session")
		return c.state
	}
	if err != nil {
		log.Warn("failed to fetch settings", zap.Error(err))
		c.state = FetchFailed
	} else {
		c.working = s
		c.state = Ready
		log.Info("settings loaded")
	}
	state := c.state
	c.mu.Unlock()
	c.watch(state)
	return state
}

// OnChange replaces the working settings with s. It reports false, and does
// nothing, unless the session is Ready.
func (c *Controller) OnChange(s *settings.Settings) bool {
	if s == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Ready {
		return false
	}
	working, ok := c.clone(s)
	if !ok {
		return false
	}
	c.working = working
	return true
}

// OnSubmit makes s the working settings and writes it back in full. The
// outcome produces exactly one notice; the session stays Ready either way.
func (c *Controller) OnSubmit(ctx context.Context, s *settings.Settings) bool {
	if s == nil {
		return false
	}
	c.mu.Lock()
	if c.state != Ready {
		c.mu.Unlock()
		return false
	}
	working, ok := c.clone(s)
	var doc *settings.Settings
	if ok {
		doc, ok = c.clone(working)
	}
	if !ok {
		c.mu.Unlock()
		c.notify.Notify(Notice{Kind: UpdateFailed, Message: msgUpdateFailed})
		return false
	}
	c.working = working
	gen, p := c.gen, c.passcode
	log := c.log.With(zap.String("session", c.id))
	c.mu.Unlock()

	ok = c.client.Update(ctx, p, doc)

	c.mu.Lock()
	stale := gen != c.gen
	c.mu.Unlock()
	if stale {
		log.Debug("dropping update result from a previous session")
		return ok
	}
	if ok {
		log.Info("settings updated")
		c.notify.Notify(Notice{Kind: UpdateSucceeded, Message: msgUpdateSucceeded})
	} else {
		log.Warn("settings update failed")
		c.notify.Notify(Notice{Kind: UpdateFailed, Message: msgUpdateFailed})
	}
	return ok
}

// OnError reports that the form renderer could not validate the document.
func (c *Controller) OnError(details []string) {
	c.notify.Notify(Notice{Kind: ValidationFailed, Message: msgValidationFailed, Details: details})
}

// Logout clears the stored passcode, discards the working settings and
// reloads the session from scratch.
func (c *Controller) Logout(ctx context.Context) State {
	c.store.Clear()

	c.mu.Lock()
	c.gen++
	c.state = LoggedOut
	c.passcode = ""
	c.working = nil
	c.log.Info("logged out", zap.String("session", c.id))
	c.mu.Unlock()
	c.watch(LoggedOut)

	return c.Start(ctx)
}

// clone copies s so the caller's value is never shared with the session.
func (c *Controller) clone(s *settings.Settings) (*settings.Settings, bool) {
	cp, err := s.Clone()
	if err != nil {
		c.log.Error("failed to copy settings", zap.String("session", c.id), zap.Error(err))
		return nil, false
	}
	return cp, true
}
