// Package credential keeps the operator's passcode across client runs.
package credential

import (
	"sync"

	"go.uber.org/zap"
)

// PasscodeKey is the fixed key the passcode is stored under.
const PasscodeKey = "passcode"

// KV is durable string key-value storage.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Store is the local credential store. Reads never fail and writes are
// best-effort: durable storage errors are logged and the in-memory value
// stays authoritative for the rest of the process.
type Store struct {
	kv  KV
	log *zap.Logger

	mu     sync.Mutex
	cached *string
}

// NewStore returns a Store persisting through kv.
func NewStore(kv KV, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{kv: kv, log: log}
}

// Get returns the current passcode, or def when none is stored or durable
// storage cannot be read.
func (s *Store) Get(def string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		if *s.cached == "" {
			return def
		}
		return *s.cached
	}
	v, ok, err := s.kv.Get(PasscodeKey)
	if err != nil {
		s.log.Warn("failed to read stored passcode", zap.Error(err))
		return def
	}
	if !ok {
		return def
	}
	s.cached = &v
	return v
}

// Set makes passcode current and persists it.
func (s *Store) Set(passcode string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = &passcode
	if err := s.kv.Set(PasscodeKey, passcode); err != nil {
		s.log.Warn("failed to persist passcode", zap.Error(err))
	}
}

// Clear removes the durable entry and makes the in-memory value absent.
// The in-memory value stays absent even if the durable entry cannot be
// removed. It does not touch any session built on top of the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = new(string)
	if err := s.kv.Remove(PasscodeKey); err != nil {
		s.log.Warn("failed to remove stored passcode", zap.Error(err))
	}
}
