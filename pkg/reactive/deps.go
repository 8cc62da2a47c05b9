package reactive

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// edge is one (source, key) dependency held by an effect.
type edge struct {
	source any
	key    any
}

// DependencyStore maps a reactive source to the effects that read each of its keys.
// Every edge stored here is mirrored in the owning Effect's own dependency set,
// and both sides are only ever mutated together.
type DependencyStore struct {
	sources map[any]map[any]mapset.Set[*Effect]
	edges   int
}

func newDependencyStore() *DependencyStore {
	return &DependencyStore{
		sources: map[any]map[any]mapset.Set[*Effect]{},
	}
}

func (d *DependencyStore) link(e *Effect, source, key any) {
	ed := edge{source: source, key: key}
	if e.deps.Contains(ed) {
		return
	}
	keys, ok := d.sources[source]
	if !ok {
		keys = map[any]mapset.Set[*Effect]{}
		d.sources[source] = keys
	}
	subs, ok := keys[key]
	if !ok {
		subs = mapset.NewThreadUnsafeSet[*Effect]()
		keys[key] = subs
	}
	subs.Add(e)
	e.deps.Add(ed)
	d.edges++
}

func (d *DependencyStore) unlink(e *Effect, ed edge) {
	if !e.deps.Contains(ed) {
		return
	}
	e.deps.Remove(ed)
	d.edges--

	keys, ok := d.sources[ed.source]
	if !ok {
		return
	}
	subs, ok := keys[ed.key]
	if !ok {
		return
	}
	subs.Remove(e)
	if subs.Cardinality() == 0 {
		delete(keys, ed.key)
	}
	if len(keys) == 0 {
		delete(d.sources, ed.source)
	}
}

// clear removes every edge the effect holds, from both sides.
func (d *DependencyStore) clear(e *Effect) {
	for _, ed := range e.deps.ToSlice() {
		d.unlink(e, ed)
	}
}

// subscribers returns the effects depending on (source, key) in creation order.
func (d *DependencyStore) subscribers(source, key any) []*Effect {
	keys, ok := d.sources[source]
	if !ok {
		return nil
	}
	subs, ok := keys[key]
	if !ok {
		return nil
	}
	effects := subs.ToSlice()
	sort.Slice(effects, func(i, j int) bool {
		return effects[i].id < effects[j].id
	})
	return effects
}

// Len is the number of (source, key, effect) edges currently stored.
func (d *DependencyStore) Len() int {
	return d.edges
}

// Sources is the number of sources with at least one dependent effect.
func (d *DependencyStore) Sources() int {
	return len(d.sources)
}

// Has reports whether e depends on (source, key).
func (d *DependencyStore) Has(e *Effect, source, key any) bool {
	keys, ok := d.sources[source]
	if !ok {
		return false
	}
	subs, ok := keys[key]
	if !ok {
		return false
	}
	return subs.Contains(e)
}

// check verifies that the store and the effects agree about every edge.
func (d *DependencyStore) check(effects []*Effect) error {
	seen := 0
	for source, keys := range d.sources {
		for key, subs := range keys {
			if subs.Cardinality() == 0 {
				return fmt.Errorf("empty subscriber set left for key %v", key)
			}
			for e := range subs.Iter() {
				if !e.deps.Contains(edge{source: source, key: key}) {
					return fmt.Errorf("effect %d missing edge for key %v held by the store", e.id, key)
				}
				seen++
			}
		}
	}
	held := 0
	for _, e := range effects {
		for _, ed := range e.deps.ToSlice() {
			if !d.Has(e, ed.source, ed.key) {
				return fmt.Errorf("effect %d holds edge for key %v unknown to the store", e.id, ed.key)
			}
			held++
		}
	}
	if seen != d.edges || held != d.edges {
		return fmt.Errorf("edge count mismatch: store=%d counted=%d held=%d", d.edges, seen, held)
	}
	return nil
}
