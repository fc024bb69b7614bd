// Package orderedset provides an insertion-ordered string set with O(1)
// membership. It marshals as a plain JSON array, so actor state blobs stay
// readable and the index is rebuilt on load.
package orderedset

import "encoding/json"

// Set keeps values in insertion order and answers membership in O(1).
// The zero value is ready to use.
type Set struct {
	items []string
	index map[string]int // value -> position in items
}

// New creates a Set seeded with the given values.
func New(values ...string) *Set {
	s := &Set{}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add appends v if absent. Reports whether the set changed.
func (s *Set) Add(v string) bool {
	if s.Has(v) {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	s.index[v] = len(s.items)
	s.items = append(s.items, v)
	return true
}

// PushFront inserts v at the front, moving it there if already present.
func (s *Set) PushFront(v string) {
	if s.Has(v) {
		s.Remove(v)
	}
	s.items = append([]string{v}, s.items...)
	s.reindex()
}

// Remove deletes v, preserving the order of the rest. Reports whether the
// set changed.
func (s *Set) Remove(v string) bool {
	pos, ok := s.index[v]
	if !ok {
		return false
	}
	s.items = append(s.items[:pos], s.items[pos+1:]...)
	delete(s.index, v)
	// Positions after the removed element shifted down.
	for i := pos; i < len(s.items); i++ {
		s.index[s.items[i]] = i
	}
	return true
}

// Has reports membership.
func (s *Set) Has(v string) bool {
	_, ok := s.index[v]
	return ok
}

// Len returns the number of elements.
func (s *Set) Len() int { return len(s.items) }

// Values returns the elements in order. The slice is a copy.
func (s *Set) Values() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Truncate drops elements beyond n, keeping the first n in order.
func (s *Set) Truncate(n int) {
	if n < 0 || len(s.items) <= n {
		return
	}
	for _, v := range s.items[n:] {
		delete(s.index, v)
	}
	s.items = s.items[:n]
}

func (s *Set) reindex() {
	s.index = make(map[string]int, len(s.items))
	for i, v := range s.items {
		s.index[v] = i
	}
}

// MarshalJSON encodes the set as a JSON array.
func (s *Set) MarshalJSON() ([]byte, error) {
	if s.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.items)
}

// UnmarshalJSON decodes a JSON array and rebuilds the index.
func (s *Set) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	s.items = s.items[:0]
	s.index = make(map[string]int, len(items))
	for _, v := range items {
		s.Add(v)
	}
	return nil
}
