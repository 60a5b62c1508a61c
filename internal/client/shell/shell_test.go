package shell

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/configurator/internal/client/form"
	"github.com/atinyakov/configurator/internal/client/session"
	"github.com/atinyakov/configurator/internal/client/settings"
)

// fakeController is a scripted session.
type fakeController struct {
	state   session.State
	working *settings.Settings
	starts  int
	retries int
	logouts int
	next    session.State
}

func (f *fakeController) Start(context.Context) session.State {
	f.starts++
	return f.state
}

func (f *fakeController) Retry(context.Context) session.State {
	f.retries++
	f.state = f.next
	return f.state
}

func (f *fakeController) Logout(context.Context) session.State {
	f.logouts++
	return f.state
}

func (f *fakeController) View() session.View {
	return session.View{State: f.state, Settings: f.working}
}

// nopSink accepts every form event.
type nopSink struct{}

func (nopSink) OnChange(*settings.Settings) bool { return true }
func (nopSink) OnSubmit(context.Context, *settings.Settings) bool { return true }
func (nopSink) OnError([]string) {}

func run(t *testing.T, ctrl *fakeController, script string) string {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	var out bytes.Buffer
	sh := New(ctrl, form.New(nil, nopSink{}), bufio.NewReader(strings.NewReader(script)), &out)
	require.NoError(t, sh.Run(context.Background()))
	return out.String()
}

func TestCut(t *testing.T) {
	cases := []struct {
		in, head, tail string
	}{
		{"set Server.Host  my host ", "set", "Server.Host  my host"},
		{"  show", "show", ""},
		{"set\tX 1", "set", "X 1"},
		{"", "", ""},
	}
	for _, tc := range cases {
		head, tail := cut(tc.in)
		assert.Equal(t, tc.head, head, tc.in)
		assert.Equal(t, tc.tail, tail, tc.in)
	}
}

func TestRun_CommandsNeedReadySession(t *testing.T) {
	ctrl := &fakeController{state: session.FetchFailed}
	out := run(t, ctrl, "show\nset A 1\nsubmit\nlogin\n")

	assert.Equal(t, 4, strings.Count(out, "Could not load settings"))
	assert.Contains(t, out, "Already logged in")
	assert.Equal(t, 1, ctrl.starts)
}

func TestRun_Retry(t *testing.T) {
	ctrl := &fakeController{state: session.FetchFailed, next: session.Ready, working: &settings.Settings{}}
	out := run(t, ctrl, "retry\nretry\n")

	assert.Equal(t, 1, ctrl.retries)
	assert.Contains(t, out, "Settings loaded")
	assert.Contains(t, out, "Nothing to retry.")
}

func TestRun_UsageAndUnknown(t *testing.T) {
	ctrl := &fakeController{state: session.Ready, working: &settings.Settings{}}
	out := run(t, ctrl, "set\nunset\nfrobnicate\nhelp\nexit\nshow\n")

	assert.Contains(t, out, "Usage: set <field> <value>")
	assert.Contains(t, out, "Usage: unset <field>")
	assert.Contains(t, out, "Unknown command 'frobnicate'")
	assert.Contains(t, out, "Available commands:")
	assert.NotContains(t, out, "╭", "commands after exit must not run")
}

func TestRun_SetReportsErrors(t *testing.T) {
	ctrl := &fakeController{state: session.Ready, working: &settings.Settings{}}
	out := run(t, ctrl, "set YouTube.PollingRate fast\n")

	assert.Contains(t, out, "✗ YouTube.PollingRate: expected a number")
}

func TestRun_Logout(t *testing.T) {
	ctrl := &fakeController{state: session.AwaitingPasscode}
	out := run(t, ctrl, "logout")

	assert.Equal(t, 1, ctrl.logouts)
	assert.Contains(t, out, "Logged out.")
}
