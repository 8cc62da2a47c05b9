// Package keyed diffs an ordered, keyed collection against the rows rendered
// for it last time and drives a renderer through the minimal patch.
package keyed

import (
	"fmt"
	"reflect"
	"runtime/debug"

	"github.com/golang/glog"
)

// Row is the persistent record of one rendered item.
type Row[N comparable] struct {
	Key   any
	Node  N
	Index int
}

// Callbacks are supplied by the renderer for one list instance. Create, Update
// and Remove are required; the rest are optional.
//
// Insert attaches a freshly created node before the given sibling and Move
// relocates an existing one; a zero before means "at the end". Both are called
// back to front so the sibling is always already in place. A created row whose
// Insert fails is handed to Remove while still detached and dropped from the
// result.
type Callbacks[T any, N comparable] struct {
	Key     func(item T, index int) any
	Keep    func(item T, index int) bool
	Create  func(item T, index int) (N, error)
	Update  func(node N, item T, index int) error
	Remove  func(node N) error
	Insert  func(node N, before N) error
	Move    func(node N, before N) error
	OnError func(err error)
}

type Stats struct {
	Created int
	Updated int
	Moved   int
	Removed int
	Skipped int
	Failed  int
}

func (s Stats) String() string {
	return fmt.Sprintf("created=%d updated=%d moved=%d removed=%d skipped=%d failed=%d",
		s.Created, s.Updated, s.Moved, s.Removed, s.Skipped, s.Failed)
}

// Result is the new baseline for the next pass.
type Result[N comparable] struct {
	Keys  []any
	Rows  map[any]*Row[N]
	Stats Stats
}

// DuplicateKey is the effective key of the n-th (n >= 1) item whose key
// collides with an earlier item of the same pass.
type DuplicateKey struct {
	Key        any
	Occurrence int
}

func (d DuplicateKey) String() string {
	return fmt.Sprintf("%v#%d", d.Key, d.Occurrence)
}

type Phase string

const (
	PhaseKey    Phase = "key"
	PhaseKeep   Phase = "keep"
	PhaseCreate Phase = "create"
	PhaseUpdate Phase = "update"
	PhaseRemove Phase = "remove"
	PhaseInsert Phase = "insert"
	PhaseMove   Phase = "move"
)

// CallbackError is one failed renderer callback. The pass carries on with the
// remaining rows.
type CallbackError struct {
	Phase Phase
	Key   any
	Index int
	Err   error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("keyed: %s of %v at %d: %v", e.Phase, e.Key, e.Index, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

type entry[T any] struct {
	key   any
	item  T
	index int
}

type pass[T any, N comparable] struct {
	cb    Callbacks[T, N]
	stats Stats
}

// Reconcile brings the rows for oldKeys up to date with items. Rows for keys in
// both sequences are updated in place and only moved when they fall outside the
// longest run already in relative order; keys only in items are created and
// keys only in oldKeys are removed. oldRows is not modified.
func Reconcile[T any, N comparable](oldKeys []any, oldRows map[any]*Row[N], items []T, cb Callbacks[T, N]) Result[N] {
	p := &pass[T, N]{cb: cb}
	entries := p.keys(items)

	newIndex := make(map[any]int, len(entries))
	for i, en := range entries {
		newIndex[en.key] = i
	}
	oldIndex := make(map[any]int, len(oldKeys))
	for i, k := range oldKeys {
		oldIndex[k] = i
	}

	for _, k := range oldKeys {
		if _, ok := newIndex[k]; ok {
			continue
		}
		if row, ok := oldRows[k]; ok {
			p.call(PhaseRemove, k, row.Index, func() error {
				return cb.Remove(row.Node)
			})
			p.stats.Removed++
		}
	}

	var zero N
	common := 0
	keys := make([]any, 0, len(entries))
	rows := make(map[any]*Row[N], len(entries))
	created := make([]bool, 0, len(entries))
	oldPos := make([]int, 0, len(entries))
	for _, en := range entries {
		if row, ok := oldRows[en.key]; ok {
			if pos, ok := oldIndex[en.key]; ok {
				if p.call(PhaseUpdate, en.key, en.index, func() error {
					return cb.Update(row.Node, en.item, en.index)
				}) {
					p.stats.Updated++
				}
				next := &Row[N]{Key: en.key, Node: row.Node, Index: len(keys)}
				keys = append(keys, en.key)
				rows[en.key] = next
				created = append(created, false)
				oldPos = append(oldPos, pos)
				common++
				continue
			}
		}

		var node N
		if !p.call(PhaseCreate, en.key, en.index, func() (err error) {
			node, err = cb.Create(en.item, en.index)
			return err
		}) {
			continue
		}
		if node == zero {
			p.stats.Skipped++
			continue
		}
		p.stats.Created++
		keys = append(keys, en.key)
		rows[en.key] = &Row[N]{Key: en.key, Node: node, Index: len(keys) - 1}
		created = append(created, true)
		oldPos = append(oldPos, -1)
	}

	inLIS := make([]bool, len(keys))
	if common > 0 {
		for _, i := range LIS(oldPos) {
			inLIS[i] = true
		}
	}

	// A row whose placement failed is not a valid anchor: the rows to its left
	// are placed against the last row that did land.
	var before N
	dropped := 0
	for i := len(keys) - 1; i >= 0; i-- {
		row := rows[keys[i]]
		switch {
		case created[i]:
			if cb.Insert != nil && !p.call(PhaseInsert, row.Key, i, func() error {
				return cb.Insert(row.Node, before)
			}) {
				p.call(PhaseRemove, row.Key, i, func() error {
					return cb.Remove(row.Node)
				})
				p.stats.Created--
				delete(rows, keys[i])
				dropped++
				continue
			}
		case !inLIS[i]:
			if cb.Move != nil {
				if !p.call(PhaseMove, row.Key, i, func() error {
					return cb.Move(row.Node, before)
				}) {
					continue
				}
				p.stats.Moved++
			}
		}
		before = row.Node
	}
	if dropped > 0 {
		keys = compact(keys, rows)
	}

	if glog.V(2) {
		glog.Infof("keyed: %d -> %d rows: %s", len(oldKeys), len(keys), p.stats)
	}
	return Result[N]{Keys: keys, Rows: rows, Stats: p.stats}
}

// compact drops the keys whose rows were removed during placement and
// renumbers the survivors.
func compact[N comparable](keys []any, rows map[any]*Row[N]) []any {
	out := keys[:0]
	for _, k := range keys {
		row, ok := rows[k]
		if !ok {
			continue
		}
		row.Index = len(out)
		out = append(out, k)
	}
	return out
}

// keys computes the effective key of every item and drops the ones Keep
// rejects. Rejected items still consume their duplicate occurrence, so the
// effective keys of later duplicates do not shift when an item is hidden.
func (p *pass[T, N]) keys(items []T) []entry[T] {
	entries := make([]entry[T], 0, len(items))
	seen := make(map[any]int, len(items))
	for i, item := range items {
		var key any = i
		if p.cb.Key != nil {
			if !p.call(PhaseKey, nil, i, func() error {
				key = p.cb.Key(item, i)
				if key != nil && !reflect.ValueOf(key).Comparable() {
					return fmt.Errorf("key %v of type %T is not comparable", key, key)
				}
				return nil
			}) {
				p.stats.Skipped++
				continue
			}
		}

		if n := seen[key]; n > 0 {
			seen[key] = n + 1
			dup := DuplicateKey{Key: key, Occurrence: n}
			for seen[dup] > 0 {
				dup.Occurrence++
			}
			key = dup
		}
		seen[key]++

		if p.cb.Keep != nil {
			keep := false
			if !p.call(PhaseKeep, key, i, func() error {
				keep = p.cb.Keep(item, i)
				return nil
			}) || !keep {
				p.stats.Skipped++
				continue
			}
		}
		entries = append(entries, entry[T]{key: key, item: item, index: i})
	}
	return entries
}

// call runs one renderer callback, turning errors and panics into a reported
// CallbackError. It reports whether the callback succeeded.
func (p *pass[T, N]) call(phase Phase, key any, index int, fn func() error) (ok bool) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
			}
		}()
		err = fn()
	}()
	if err == nil {
		return true
	}

	p.stats.Failed++
	cerr := &CallbackError{Phase: phase, Key: key, Index: index, Err: err}
	if p.cb.OnError != nil {
		p.cb.OnError(cerr)
	} else {
		glog.Errorf("%v", cerr)
	}
	return false
}
