package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atinyakov/configurator/internal/client/session"
)

func TestFormatter_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, "'Server.Port'", Highlight.Sprint("Server.Port"))
	assert.Equal(t, "done 3", Success.Sprintf("done %d", 3))
}

func TestNotifier(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	n := NewNotifier(&buf)

	n.Notify(session.Notice{Kind: session.UpdateSucceeded, Message: "Successfully updated settings"})
	n.Notify(session.Notice{Kind: session.UpdateFailed, Message: "Failed to update settings..."})
	n.Notify(session.Notice{
		Kind:    session.ValidationFailed,
		Message: "Settings do not match the schema",
		Details: []string{"Server.Port: is required"},
	})

	assert.Equal(t, "✓ Successfully updated settings\n"+
		"✗ Failed to update settings...\n"+
		"⚠ Settings do not match the schema\n"+
		"  - Server.Port: is required\n", buf.String())
}

func TestSpinner_Track(t *testing.T) {
	var buf bytes.Buffer
	sp := NewSpinner(&buf, "Loading settings")

	// not a terminal, so the spinner never becomes active
	sp.Track(session.Loading)
	assert.False(t, sp.Active())
	sp.Track(session.Ready)
	assert.False(t, sp.Active())
}
