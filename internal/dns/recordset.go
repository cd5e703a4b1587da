package dns

import "sort"

// RecordSet is an unordered set of record values in presentation format.
// The zero value is an empty set ready for reads; use NewRecordSet before Add.
type RecordSet map[string]struct{}

// NewRecordSet returns a set holding the given values, duplicates collapsed.
func NewRecordSet(values ...string) RecordSet {
	s := make(RecordSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s RecordSet) Add(value string) {
	s[value] = struct{}{}
}

func (s RecordSet) Remove(value string) {
	delete(s, value)
}

func (s RecordSet) Contains(value string) bool {
	_, ok := s[value]
	return ok
}

func (s RecordSet) Len() int {
	return len(s)
}

// Union returns a new set with the values of s and other.
func (s RecordSet) Union(other RecordSet) RecordSet {
	out := make(RecordSet, len(s)+len(other))
	for v := range s {
		out[v] = struct{}{}
	}
	for v := range other {
		out[v] = struct{}{}
	}
	return out
}

// Difference returns a new set with the values of s that are not in other.
func (s RecordSet) Difference(other RecordSet) RecordSet {
	out := make(RecordSet, len(s))
	for v := range s {
		if !other.Contains(v) {
			out[v] = struct{}{}
		}
	}
	return out
}

func (s RecordSet) Equal(other RecordSet) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}

// Sorted returns the values in lexical order. Never nil, so it encodes as [].
func (s RecordSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
