// Package passcode makes sure the client has a passcode before it talks to
// the settings service, asking the operator for one when none is stored.
package passcode

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Provider solicits a passcode from the operator. An empty answer means the
// operator cancelled.
type Provider interface {
	Solicit(ctx context.Context) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (string, error)

func (f ProviderFunc) Solicit(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticProvider always answers with the same passcode.
type StaticProvider string

func (p StaticProvider) Solicit(context.Context) (string, error) {
	return string(p), nil
}

// Store is the subset of the credential store the Acquirer needs.
type Store interface {
	Get(def string) string
	Set(passcode string)
}

// Acquirer ties a Store to a Provider.
type Acquirer struct {
	store    Store
	provider Provider
	log      *zap.Logger
}

// NewAcquirer returns an Acquirer that asks provider whenever store is empty.
func NewAcquirer(store Store, provider Provider, log *zap.Logger) *Acquirer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Acquirer{store: store, provider: provider, log: log}
}

// Current returns the stored passcode without prompting.
func (a *Acquirer) Current() string {
	return a.store.Get("")
}

// Ensure returns the stored passcode, or solicits one when it is absent.
// The answer is stored even when empty, so an empty or cancelled answer
// leaves the store absent and the next Ensure prompts again.
// Each call prompts at most once.
func (a *Acquirer) Ensure(ctx context.Context) (string, bool) {
	if p := a.store.Get(""); p != "" {
		return p, true
	}

	p, err := a.provider.Solicit(ctx)
	if err != nil {
		a.log.Info("passcode prompt cancelled", zap.Error(err))
		p = ""
	}
	p = strings.TrimSpace(p)
	a.store.Set(p)
	return p, p != ""
}
