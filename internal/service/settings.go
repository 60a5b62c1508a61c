// Package service holds the settings store business rules, delegating
// persistence to a repository.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atinyakov/configurator/internal/models"
)

// ErrInvalidDocument is returned for writes whose body is not a JSON object.
var ErrInvalidDocument = errors.New("settings document must be a JSON object")

// DefaultRevisionLimit caps History when the caller asks for no limit.
const DefaultRevisionLimit = 20

// SettingsRepository defines the persistence operations needed by SettingsService.
type SettingsRepository interface {
	Get(ctx context.Context, passcode string) (*models.Document, error)
	Put(ctx context.Context, passcode string, body []byte) error
	Revisions(ctx context.Context, passcode string, limit int) ([]models.Revision, error)
}

// SettingsService reads and writes settings documents.
type SettingsService struct {
	repo SettingsRepository
}

// NewSettingsService constructs a SettingsService over repo.
func NewSettingsService(repo SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// Load returns the document stored under passcode.
func (s *SettingsService) Load(ctx context.Context, passcode string) (json.RawMessage, error) {
	doc, err := s.repo.Get(ctx, passcode)
	if err != nil {
		return nil, err
	}
	return doc.Body, nil
}

// Save replaces the document under passcode with body. The body is stored
// as sent; the last write wins.
func (s *SettingsService) Save(ctx context.Context, passcode string, body []byte) error {
	trimmed := bytes.TrimSpace(body)
	var obj map[string]json.RawMessage
	if len(trimmed) == 0 || trimmed[0] != '{' || json.Unmarshal(trimmed, &obj) != nil {
		return ErrInvalidDocument
	}
	if err := s.repo.Put(ctx, passcode, trimmed); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// History returns up to limit past writes, newest first.
func (s *SettingsService) History(ctx context.Context, passcode string, limit int) ([]models.Revision, error) {
	if limit <= 0 {
		limit = DefaultRevisionLimit
	}
	return s.repo.Revisions(ctx, passcode, limit)
}
