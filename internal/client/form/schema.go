// Package form renders the settings document in the terminal and turns
// operator commands into change, submit and error events.
package form

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
)

//go:embed settings.schema.json
var bundledSchema []byte

// Schema is the subset of JSON Schema the form understands.
// Keys not listed in Properties are always allowed.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
}

// BundledSchema returns the schema shipped with the client.
func BundledSchema() *Schema {
	s, err := ParseSchema(bundledSchema)
	if err != nil {
		panic(fmt.Sprintf("bundled schema: %v", err))
	}
	return s
}

// ParseSchema decodes a schema document. Comments and trailing commas are
// accepted. An empty document yields the bundled schema.
func ParseSchema(data []byte) (*Schema, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return BundledSchema(), nil
	}
	var s Schema
	if err := json.Unmarshal(jsonc.ToJSON(data), &s); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return &s, nil
}

// Lookup returns the schema at a dotted path, or nil when the path is not
// described.
func (s *Schema) Lookup(path string) *Schema {
	cur := s
	for _, part := range strings.Split(path, ".") {
		if cur == nil || cur.Properties == nil {
			return nil
		}
		cur = cur.Properties[part]
	}
	return cur
}

// FieldError is one validation failure.
type FieldError struct {
	Path    string
	Message string
}

func (e FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// Validate checks doc, a decoded JSON value, against s.
func (s *Schema) Validate(doc any) []FieldError {
	var errs []FieldError
	s.validate("", doc, &errs)
	return errs
}

func (s *Schema) validate(path string, v any, errs *[]FieldError) {
	if s == nil {
		return
	}
	fail := func(msg string) {
		*errs = append(*errs, FieldError{Path: path, Message: msg})
	}
	switch s.Type {
	case "object":
		obj, ok := v.(map[string]any)
		if !ok {
			fail("must be an object")
			return
		}
		for _, name := range s.Required {
			if _, ok := obj[name]; !ok {
				*errs = append(*errs, FieldError{Path: join(path, name), Message: "is required"})
			}
		}
		names := make([]string, 0, len(s.Properties))
		for name := range s.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if child, ok := obj[name]; ok {
				s.Properties[name].validate(join(path, name), child, errs)
			}
		}
	case "array":
		arr, ok := v.([]any)
		if !ok {
			fail("must be an array")
			return
		}
		for i, item := range arr {
			s.Items.validate(fmt.Sprintf("%s[%d]", path, i), item, errs)
		}
	case "string":
		if _, ok := v.(string); !ok {
			fail("must be a string")
		}
	case "number":
		if _, ok := v.(float64); !ok {
			fail("must be a number")
		}
	case "integer":
		if f, ok := v.(float64); !ok || f != math.Trunc(f) {
			fail("must be an integer")
		}
	case "boolean":
		if _, ok := v.(bool); !ok {
			fail("must be a boolean")
		}
	}
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
