package credential

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// failingKV fails every operation with err.
type failingKV struct {
	err     error
	setCall int
}

func (f *failingKV) Get(string) (string, bool, error) { return "", false, f.err }
func (f *failingKV) Set(string, string) error {
	f.setCall++
	return f.err
}
func (f *failingKV) Remove(string) error { return f.err }

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestFileKV_SetGetRemove(t *testing.T) {
	kv := NewFileKV(filepath.Join(t.TempDir(), "state"))

	_, ok, err := kv.Get(PasscodeKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(PasscodeKey, "abc123"))
	v, ok, err := kv.Get(PasscodeKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", v)

	require.NoError(t, kv.Remove(PasscodeKey))
	_, ok, err = kv.Get(PasscodeKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Remove("missing"))
}

func TestFileKV_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0o600))

	kv := NewFileKV(dir)
	_, _, err := kv.Get(PasscodeKey)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestStore_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	NewStore(NewFileKV(dir), nil).Set("xyz")

	restored := NewStore(NewFileKV(dir), nil)
	assert.Equal(t, "xyz", restored.Get(""))
}

func TestStore_GetFallsBackToDefaultOnReadFailure(t *testing.T) {
	log, logs := observedLogger()
	s := NewStore(&failingKV{err: errors.New("disk gone")}, log)

	assert.Equal(t, "", s.Get(""))
	assert.Equal(t, 1, logs.FilterMessage("failed to read stored passcode").Len())
}

func TestStore_GetFallsBackOnCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("]"), 0o600))

	log, logs := observedLogger()
	s := NewStore(NewFileKV(dir), log)
	assert.Equal(t, "", s.Get(""))
	assert.Equal(t, 1, logs.Len())
}

func TestStore_SetKeepsInMemoryValueWhenPersistFails(t *testing.T) {
	log, logs := observedLogger()
	kv := &failingKV{err: errors.New("read-only")}
	s := NewStore(kv, log)

	s.Set("abc123")

	assert.Equal(t, 1, kv.setCall)
	assert.Equal(t, "abc123", s.Get(""))
	assert.Equal(t, 1, logs.FilterMessage("failed to persist passcode").Len())
}

func TestStore_ClearRemovesDurableEntry(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(NewFileKV(dir), nil)
	s.Set("abc123")

	s.Clear()

	assert.Equal(t, "", s.Get(""))
	assert.Equal(t, "", NewStore(NewFileKV(dir), nil).Get(""))
}

// removeFailingKV stores values but cannot delete them.
type removeFailingKV struct {
	entries map[string]string
}

func (k *removeFailingKV) Get(key string) (string, bool, error) {
	v, ok := k.entries[key]
	return v, ok, nil
}

func (k *removeFailingKV) Set(key, value string) error {
	k.entries[key] = value
	return nil
}

func (k *removeFailingKV) Remove(string) error { return errors.New("read-only") }

func TestStore_ClearStaysAbsentWhenRemoveFails(t *testing.T) {
	log, logs := observedLogger()
	kv := &removeFailingKV{entries: map[string]string{}}
	s := NewStore(kv, log)
	s.Set("abc123")

	s.Clear()

	assert.Equal(t, "", s.Get(""))
	assert.Equal(t, "fallback", s.Get("fallback"))
	assert.Equal(t, 1, logs.FilterMessage("failed to remove stored passcode").Len())
	assert.Equal(t, "abc123", kv.entries[PasscodeKey], "durable entry is still there")
}
