package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// object is a JSON object split into raw fields. Known keys are taken out one
// by one; whatever is left over becomes Extra.
type object struct {
	fields map[string]json.RawMessage
}

func newObject(extra Extra) *object {
	fields := make(map[string]json.RawMessage, len(extra)+5)
	for k, v := range extra {
		fields[k] = v
	}
	return &object{fields: fields}
}

func splitObject(data []byte) (*object, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	return &object{fields: fields}, nil
}

// take decodes key into dst and removes it. A missing key leaves dst untouched.
func (o *object) take(key string, dst any) error {
	raw, ok := o.fields[key]
	if !ok {
		return nil
	}
	delete(o.fields, key)
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	return nil
}

// put encodes v under key, overriding any extra field of the same name.
func (o *object) put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	o.fields[key] = raw
	return nil
}

// field binds a known key to the struct field holding its value.
type field struct {
	key string
	ptr any
}

// keySet records known keys a decoded object did not carry. Absent keys are
// left out again on encode, so a document never gains fields it did not have.
type keySet map[string]struct{}

func (k keySet) has(key string) bool {
	_, ok := k[key]
	return ok
}

// takeAll decodes every known field and returns the keys that were absent.
// A known key holding null counts as absent and stays in the leftover
// fields, so it is written back as null.
func (o *object) takeAll(fields []field) (keySet, error) {
	var absent keySet
	for _, f := range fields {
		raw, ok := o.fields[f.key]
		if !ok || string(bytes.TrimSpace(raw)) == "null" {
			if absent == nil {
				absent = keySet{}
			}
			absent[f.key] = struct{}{}
			continue
		}
		if err := o.take(f.key, f.ptr); err != nil {
			return nil, err
		}
	}
	return absent, nil
}

// putAll encodes every known field that is not in absent.
func (o *object) putAll(fields []field, absent keySet) error {
	for _, f := range fields {
		if absent.has(f.key) {
			continue
		}
		if err := o.put(f.key, f.ptr); err != nil {
			return err
		}
	}
	return nil
}

func (o *object) rest() Extra {
	if len(o.fields) == 0 {
		return nil
	}
	return Extra(o.fields)
}
