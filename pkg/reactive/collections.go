package reactive

import "slices"

// ReactiveList is an ordered collection. Reads of single positions track the
// index; reads of the whole list or its length track IterateKey.
type ReactiveList[T comparable] struct {
	rt    *Runtime
	items []T
}

func List[T comparable](rt *Runtime, items ...T) *ReactiveList[T] {
	return &ReactiveList[T]{rt: rt, items: slices.Clone(items)}
}

func (l *ReactiveList[T]) Len() int {
	l.rt.Track(l, IterateKey)
	return len(l.items)
}

func (l *ReactiveList[T]) At(i int) T {
	l.rt.Track(l, i)
	return l.items[i]
}

// Items returns a copy of the current items. It depends on the shape and on
// every index, so reorders and in-place writes both re-run the reader.
func (l *ReactiveList[T]) Items() []T {
	l.rt.Track(l, IterateKey)
	for i := range l.items {
		l.rt.Track(l, i)
	}
	return slices.Clone(l.items)
}

func (l *ReactiveList[T]) Peek() []T {
	return slices.Clone(l.items)
}

func (l *ReactiveList[T]) Set(i int, v T) {
	if l.items[i] == v {
		return
	}
	l.items[i] = v
	l.rt.Notify(l, i)
}

func (l *ReactiveList[T]) Append(items ...T) {
	if len(items) == 0 {
		return
	}
	l.replace(append(slices.Clone(l.items), items...))
}

func (l *ReactiveList[T]) Insert(i int, items ...T) {
	if len(items) == 0 {
		return
	}
	l.replace(slices.Insert(slices.Clone(l.items), i, items...))
}

func (l *ReactiveList[T]) RemoveAt(i int) T {
	v := l.items[i]
	l.replace(slices.Delete(slices.Clone(l.items), i, i+1))
	return v
}

// Move relocates the item at from so that it ends up at index to.
func (l *ReactiveList[T]) Move(from, to int) {
	if from == to {
		return
	}
	next := slices.Clone(l.items)
	v := next[from]
	next = slices.Delete(next, from, from+1)
	next = slices.Insert(next, to, v)
	l.replace(next)
}

// Replace swaps in a whole new item sequence.
func (l *ReactiveList[T]) Replace(items []T) {
	l.replace(slices.Clone(items))
}

// replace notifies every index whose value changed, plus IterateKey when the
// length or the membership changed, all inside one batch.
func (l *ReactiveList[T]) replace(next []T) {
	prev := l.items
	l.items = next

	var changed []int
	for i := 0; i < max(len(prev), len(next)); i++ {
		if i >= len(prev) || i >= len(next) || prev[i] != next[i] {
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		return
	}

	l.rt.StartBatch()
	if len(prev) != len(next) || !sameMembers(prev, next) {
		l.rt.NotifyShape(l)
	}
	for _, i := range changed {
		l.rt.Notify(l, i)
	}
	l.rt.EndBatch()
}

func sameMembers[T comparable](a, b []T) bool {
	counts := make(map[T]int, len(a))
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
		if counts[v] < 0 {
			return false
		}
	}
	return true
}

// ReactiveMap is a keyed record. Each key is tracked independently; key
// enumeration tracks IterateKey.
type ReactiveMap[K comparable, V any] struct {
	rt     *Runtime
	values map[K]V
}

func Map[K comparable, V any](rt *Runtime) *ReactiveMap[K, V] {
	return &ReactiveMap[K, V]{rt: rt, values: map[K]V{}}
}

func (m *ReactiveMap[K, V]) Get(k K) (V, bool) {
	m.rt.Track(m, k)
	v, ok := m.values[k]
	return v, ok
}

func (m *ReactiveMap[K, V]) Len() int {
	m.rt.Track(m, IterateKey)
	return len(m.values)
}

func (m *ReactiveMap[K, V]) Keys() []K {
	m.rt.Track(m, IterateKey)
	keys := make([]K, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	return keys
}

func (m *ReactiveMap[K, V]) Set(k K, v V) {
	_, existed := m.values[k]
	m.values[k] = v
	m.rt.StartBatch()
	if !existed {
		m.rt.NotifyShape(m)
	}
	m.rt.Notify(m, k)
	m.rt.EndBatch()
}

func (m *ReactiveMap[K, V]) Delete(k K) {
	if _, ok := m.values[k]; !ok {
		return
	}
	delete(m.values, k)
	m.rt.StartBatch()
	m.rt.NotifyShape(m)
	m.rt.Notify(m, k)
	m.rt.EndBatch()
}
