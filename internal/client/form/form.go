package form

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/atinyakov/configurator/internal/client/settings"
)

// ErrInvalidPath is returned for edits that do not address a field.
var ErrInvalidPath = errors.New("invalid field path")

// Sink receives the events the form produces.
type Sink interface {
	OnChange(s *settings.Settings) bool
	OnSubmit(ctx context.Context, s *settings.Settings) bool
	OnError(details []string)
}

// Form edits a settings document against a schema. It never keeps a copy of
// the document: every edit starts from the value passed in and hands a
// complete new document to the sink.
type Form struct {
	schema *Schema
	sink   Sink
}

// New returns a Form. A nil schema means the bundled one.
func New(schema *Schema, sink Sink) *Form {
	if schema == nil {
		schema = BundledSchema()
	}
	return &Form{schema: schema, sink: sink}
}

// Schema returns the schema the form validates against.
func (f *Form) Schema() *Schema {
	return f.schema
}

// Render writes the document as a table of fields.
func (f *Form) Render(w io.Writer, s *settings.Settings) error {
	doc, err := toDoc(s)
	if err != nil {
		return err
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Field", "Type", "Value"})
	for _, row := range f.rows("", f.schema, doc) {
		tw.AppendRow(row)
	}
	_, err = fmt.Fprintln(w, tw.Render())
	return err
}

func (f *Form) rows(path string, schema *Schema, v any) []table.Row {
	obj, ok := v.(map[string]any)
	if !ok {
		return []table.Row{{path, typeOf(schema, v), display(v)}}
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rows []table.Row
	for _, k := range keys {
		var child *Schema
		if schema != nil && schema.Properties != nil {
			child = schema.Properties[k]
		}
		name := join(path, k)
		if schema != nil && contains(schema.Required, k) {
			name += " *"
		}
		if sub, isObj := obj[k].(map[string]any); isObj {
			rows = append(rows, f.rows(join(path, k), child, sub)...)
			continue
		}
		rows = append(rows, table.Row{name, typeOf(child, obj[k]), display(obj[k])})
	}
	return rows
}

// Set assigns raw, interpreted through the schema type of path, and emits
// the resulting document as a change.
func (f *Form) Set(current *settings.Settings, path, raw string) (*settings.Settings, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	value, err := coerce(f.schema.Lookup(path), raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f.edit(current, func(doc map[string]any) error {
		obj := doc
		for _, p := range parts[:len(parts)-1] {
			next, ok := obj[p].(map[string]any)
			if !ok {
				if _, exists := obj[p]; exists {
					return fmt.Errorf("%w: %s is not an object", ErrInvalidPath, p)
				}
				next = map[string]any{}
				obj[p] = next
			}
			obj = next
		}
		obj[parts[len(parts)-1]] = value
		return nil
	})
}

// Unset removes the field at path and emits the resulting document.
func (f *Form) Unset(current *settings.Settings, path string) (*settings.Settings, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	return f.edit(current, func(doc map[string]any) error {
		obj := doc
		for _, p := range parts[:len(parts)-1] {
			next, ok := obj[p].(map[string]any)
			if !ok {
				return fmt.Errorf("%w: %s", ErrInvalidPath, path)
			}
			obj = next
		}
		last := parts[len(parts)-1]
		if _, ok := obj[last]; !ok {
			return fmt.Errorf("%w: %s", ErrInvalidPath, path)
		}
		delete(obj, last)
		return nil
	})
}

func (f *Form) edit(current *settings.Settings, fn func(map[string]any) error) (*settings.Settings, error) {
	doc, err := toDoc(current)
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	next, err := fromDoc(doc)
	if err != nil {
		return nil, err
	}
	f.sink.OnChange(next)
	return next, nil
}

// Submit validates the document and emits it as a submit, or emits the
// validation errors instead.
func (f *Form) Submit(ctx context.Context, current *settings.Settings) bool {
	doc, err := toDoc(current)
	if err != nil {
		f.sink.OnError([]string{err.Error()})
		return false
	}
	if errs := f.schema.Validate(doc); len(errs) > 0 {
		details := make([]string, 0, len(errs))
		for _, e := range errs {
			details = append(details, e.Error())
		}
		f.sink.OnError(details)
		return false
	}
	return f.sink.OnSubmit(ctx, current)
}

func toDoc(s *settings.Settings) (map[string]any, error) {
	if s == nil {
		return nil, errors.New("no settings loaded")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return doc, nil
}

func fromDoc(doc map[string]any) (*settings.Settings, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return settings.Parse(b)
}

func splitPath(path string) ([]string, error) {
	parts := strings.Split(strings.TrimSpace(path), ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return parts, nil
}

// coerce turns operator input into a JSON value of the schema's type.
// Undescribed fields take JSON when raw parses as JSON and a string otherwise.
func coerce(schema *Schema, raw string) (any, error) {
	typ := ""
	if schema != nil {
		typ = schema.Type
	}
	switch typ {
	case "string":
		return raw, nil
	case "number":
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", raw)
		}
		return v, nil
	case "integer":
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected an integer, got %q", raw)
		}
		return float64(v), nil
	case "boolean":
		v, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("expected true or false, got %q", raw)
		}
		return v, nil
	case "array":
		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, "[") {
			var v []any
			if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
				return nil, fmt.Errorf("expected a JSON array: %w", err)
			}
			return v, nil
		}
		items := []any{}
		if trimmed == "" {
			return items, nil
		}
		for _, part := range strings.Split(trimmed, ",") {
			item, err := coerce(schema.Items, strings.TrimSpace(part))
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	case "object":
		var v map[string]any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("expected a JSON object: %w", err)
		}
		return v, nil
	default:
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return v, nil
		}
		return raw, nil
	}
}

func typeOf(schema *Schema, v any) string {
	if schema != nil && schema.Type != "" {
		return schema.Type
	}
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case nil:
		return "null"
	default:
		return "object"
	}
}

func display(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
