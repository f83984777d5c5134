// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package record

import (
	"encoding/json"
	"reflect"
	"sort"

	"github.com/spf13/cast"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is an ordered mapping from field name to value. Values are expected to be
// strings, numbers (int64 or float64), booleans or nil.
// Overwriting a field keeps its original position, new fields are appended.
// The zero value is an empty record ready to use.
type Record struct {
	fields *orderedmap.OrderedMap[string, any]
}

// New returns an empty record.
func New() *Record {
	return &Record{fields: orderedmap.New[string, any]()}
}

// FromPairs builds a record from alternating field names and values.
// A trailing field without value is set to nil.
func FromPairs(fieldsAndValues ...any) *Record {
	r := New()
	for idx := 0; idx < len(fieldsAndValues); idx += 2 {
		var value any
		if idx+1 < len(fieldsAndValues) {
			value = fieldsAndValues[idx+1]
		}
		r.Set(cast.ToString(fieldsAndValues[idx]), value)
	}

	return r
}

// FromMap builds a record from a plain map. Go maps are unordered, so fields are
// inserted in lexical order to keep the result deterministic.
func FromMap(values map[string]any) *Record {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	r := New()
	for _, key := range keys {
		r.Set(key, values[key])
	}
	return r
}

func (r *Record) init() {
	if r.fields == nil {
		r.fields = orderedmap.New[string, any]()
	}
}

// Get returns the value of field and whether it is present.
func (r *Record) Get(field string) (any, bool) {
	if r == nil || r.fields == nil {
		return nil, false
	}
	return r.fields.Get(field)
}

// Value returns the value of field, or nil when it is missing.
func (r *Record) Value(field string) any {
	value, _ := r.Get(field)
	return value
}

// Has reports whether field is present, even with a nil value.
func (r *Record) Has(field string) bool {
	_, ok := r.Get(field)
	return ok
}

// Set stores value in field and returns the record to allow chaining.
func (r *Record) Set(field string, value any) *Record {
	r.init()
	r.fields.Set(field, value)
	return r
}

// Delete removes field from the record, reporting if it was present.
func (r *Record) Delete(field string) bool {
	if r == nil || r.fields == nil {
		return false
	}
	_, present := r.fields.Delete(field)
	return present
}

// Rename moves the value of oldField under newField keeping its position.
// An existing newField is replaced.
func (r *Record) Rename(oldField, newField string) bool {
	if !r.Has(oldField) || oldField == newField {
		return false
	}

	renamed := orderedmap.New[string, any]()
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		switch pair.Key {
		case newField:
			continue
		case oldField:
			renamed.Set(newField, pair.Value)
		default:
			renamed.Set(pair.Key, pair.Value)
		}
	}
	r.fields = renamed
	return true
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil || r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Fields returns the field names in order.
func (r *Record) Fields() []string {
	fields := make([]string, 0, r.Len())
	r.Each(func(field string, _ any) bool {
		fields = append(fields, field)
		return true
	})
	return fields
}

// Each calls fn for every field in order until fn returns false.
func (r *Record) Each(fn func(field string, value any) bool) {
	if r == nil || r.fields == nil {
		return
	}
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Map returns the record content as a plain map, losing the field order.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, r.Len())
	r.Each(func(field string, value any) bool {
		out[field] = value
		return true
	})
	return out
}

// Clone returns a copy of the record. Values are copied shallowly.
func (r *Record) Clone() *Record {
	clone := New()
	r.Each(func(field string, value any) bool {
		clone.Set(field, value)
		return true
	})
	return clone
}

// Equal reports whether both records hold the same fields, in the same order,
// with deeply equal values.
func (r *Record) Equal(other *Record) bool {
	if r.Len() != other.Len() {
		return false
	}

	otherFields := other.Fields()
	idx := 0
	equal := true
	r.Each(func(field string, value any) bool {
		if otherFields[idx] != field || !reflect.DeepEqual(value, other.Value(field)) {
			equal = false
			return false
		}
		idx++
		return true
	})
	return equal
}

// String returns the JSON representation of the record.
func (r *Record) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// MarshalJSON encodes the record as a JSON object keeping the field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil || r.fields == nil {
		return []byte("{}"), nil
	}
	return r.fields.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object keeping the field order.
func (r *Record) UnmarshalJSON(data []byte) error {
	fields := orderedmap.New[string, any]()
	if err := fields.UnmarshalJSON(data); err != nil {
		return err
	}
	r.fields = fields
	return nil
}
