package arena

import (
	"maps"
	"slices"
)

// FlatScope is the immutable variable table of one loop row. own holds the
// row's variables, ancestors every enclosing row's variables already flattened,
// so resolving an outer variable is one map lookup at any nesting depth.
type FlatScope struct {
	own       map[string]ID
	ancestors map[string]ID
	order     []ID
}

// NewScope allocates one ID per name and captures parent's flattened table.
// An inner name shadows the same outer name only inside this scope.
func (a *Arena) NewScope(parent *FlatScope, names ...string) *FlatScope {
	s := &FlatScope{
		own:       make(map[string]ID, len(names)),
		ancestors: parent.Flatten(),
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, dup := s.own[name]; dup {
			continue
		}
		id := a.Allocate(name)
		s.own[name] = id
		s.order = append(s.order, id)
	}
	return s
}

// Flatten merges the scope's own table over its ancestors into a new map.
// A nil scope flattens to an empty map.
func (s *FlatScope) Flatten() map[string]ID {
	if s == nil {
		return map[string]ID{}
	}
	flat := make(map[string]ID, len(s.own)+len(s.ancestors))
	maps.Copy(flat, s.ancestors)
	maps.Copy(flat, s.own)
	return flat
}

// Lookup resolves name to its ID, own variables first.
func (s *FlatScope) Lookup(name string) (ID, bool) {
	if s == nil {
		return 0, false
	}
	if id, ok := s.own[name]; ok {
		return id, true
	}
	id, ok := s.ancestors[name]
	return id, ok
}

// Own returns the ID of a variable declared by this scope itself.
func (s *FlatScope) Own(name string) (ID, bool) {
	if s == nil {
		return 0, false
	}
	id, ok := s.own[name]
	return id, ok
}

// IDs lists the scope's own IDs in declaration order.
func (s *FlatScope) IDs() []ID {
	if s == nil {
		return nil
	}
	return slices.Clone(s.order)
}

// Resolve reads name's current value from a.
func (s *FlatScope) Resolve(a *Arena, name string) (any, bool) {
	id, ok := s.Lookup(name)
	if !ok {
		return nil, false
	}
	return a.Get(id)
}

// Free releases the scope's own IDs; ancestors belong to their own rows.
// It returns how many were still allocated, so a second call returns 0.
func (s *FlatScope) Free(a *Arena) int {
	n := 0
	for _, id := range s.IDs() {
		if a.Delete(id) {
			n++
		}
	}
	return n
}
