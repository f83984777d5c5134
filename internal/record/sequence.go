// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package record

// Sequence is a finite ordered collection of records.
type Sequence []*Record

// Clone returns a copy of the sequence where every record is cloned.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}

	clone := make(Sequence, len(s))
	for idx, r := range s {
		clone[idx] = r.Clone()
	}
	return clone
}

// Equal reports whether both sequences hold equal records in the same order.
func (s Sequence) Equal(other Sequence) bool {
	if len(s) != len(other) {
		return false
	}

	for idx := range s {
		if !s[idx].Equal(other[idx]) {
			return false
		}
	}
	return true
}

// Fields returns the ordered union of the field names of all records, in order of
// first appearance.
func (s Sequence) Fields() []string {
	seen := make(map[string]struct{})
	fields := make([]string, 0)
	for _, r := range s {
		r.Each(func(field string, _ any) bool {
			if _, ok := seen[field]; !ok {
				seen[field] = struct{}{}
				fields = append(fields, field)
			}
			return true
		})
	}
	return fields
}

// Maps returns the records as plain maps.
func (s Sequence) Maps() []map[string]any {
	out := make([]map[string]any, len(s))
	for idx, r := range s {
		out[idx] = r.Map()
	}
	return out
}
