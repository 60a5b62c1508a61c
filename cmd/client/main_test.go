package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/configurator/internal/client/credential"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	t.Setenv("CONFIGURATOR_HOST", "")
	t.Setenv("CONFIGURATOR_SCHEMA", "")
	t.Setenv("CONFIGURATOR_STATE_DIR", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Build version: N/A")
	assert.Contains(t, out, "Build date: N/A")
}

func TestLogout_RemovesStoredPasscode(t *testing.T) {
	dir := t.TempDir()
	kv := credential.NewFileKV(dir)
	require.NoError(t, kv.Set(credential.PasscodeKey, "xyz"))

	out, err := execute(t, "logout",
		"--config", filepath.Join(t.TempDir(), "none.toml"),
		"--state-dir", dir,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Logged out")

	_, ok, err := kv.Get(credential.PasscodeKey)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.FileExists(t, filepath.Join(dir, "configurator.log"))
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, "frobnicate")
	assert.Error(t, err)
}
