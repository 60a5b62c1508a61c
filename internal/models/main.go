// Package models defines the records kept by the settings store.
package models

import (
	"encoding/json"
	"time"
)

// Document is the settings document stored under one passcode.
type Document struct {
	// Passcode addresses the document.
	Passcode string
	// Body is the JSON object exactly as it was last written.
	Body json.RawMessage
	// UpdatedAt is when Body was written.
	UpdatedAt time.Time
}

// Revision is a past write of a document.
type Revision struct {
	ID        string
	Passcode  string
	Body      json.RawMessage
	CreatedAt time.Time
}
