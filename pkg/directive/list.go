package directive

import (
	"errors"
	"reflect"
	"runtime"

	"github.com/delaneyj/rowsignal/pkg/arena"
	"github.com/delaneyj/rowsignal/pkg/dom"
	"github.com/delaneyj/rowsignal/pkg/keyed"
	"github.com/delaneyj/rowsignal/pkg/reactive"
	"github.com/delaneyj/rowsignal/pkg/walk"
	"github.com/golang/glog"
)

// ListOptions describes one keyed list. Source and Render are required.
type ListOptions[T any] struct {
	// Item and Index name the loop variables; Item defaults to "item" and an
	// empty Index declares none.
	Item  string
	Index string

	// Source is read inside the list effect, so whatever it tracks drives
	// re-rendering.
	Source func() []T
	Key    func(item T, index int, scope *arena.FlatScope) any
	Keep   func(item T, index int, scope *arena.FlatScope) bool

	// Render builds the node for a new row. It runs untracked, under the row's
	// owner, so effects it creates live exactly as long as the row.
	Render func(scope *arena.FlatScope) (*dom.Node, error)

	OnReconcile func(stats keyed.Stats)
}

type row struct {
	scope *arena.FlatScope
	owner *reactive.Owner
	item  arena.ID
	index arena.ID
}

func (rw *row) release(ar *arena.Arena) int {
	rw.owner.Dispose()
	return rw.scope.Free(ar)
}

// List renders Source into container, one child per kept item.
type List[T any] struct {
	r         *Renderer
	opts      ListOptions[T]
	container *dom.Node
	parent    *arena.FlatScope
	owner     *reactive.Owner
	effect    *reactive.Effect
	// depth is the walk depth of the rows.
	depth int

	keys   []any
	rows   map[any]*keyed.Row[*dom.Node]
	meta   map[*dom.Node]*row
	stats  keyed.Stats
	passes int
}

// NewList installs the list effect under the current owner and renders once.
// parent is the enclosing row's scope, nil at the top level.
//
// A list created while a row is rendering sits below that row, so its rows
// are at least two levels deeper. Past the renderer's depth limit the container
// is marked and a *walk.DepthError returned instead of rendering.
func NewList[T any](r *Renderer, container *dom.Node, parent *arena.FlatScope, opts ListOptions[T]) (*List[T], error) {
	if opts.Source == nil || opts.Render == nil {
		return nil, errors.New("directive: list needs Source and Render")
	}
	if container == nil || container.Kind != dom.KindElement {
		return nil, errors.New("directive: list container must be an element")
	}
	if opts.Item == "" {
		opts.Item = "item"
	}

	if limit := r.walk.MaxDepth(); r.depth > limit {
		err := &walk.DepthError{Depth: r.depth, Limit: limit}
		container.SetAttr(MarkerAttr, err.Error())
		glog.Warningf("directive: list not rendered: %v", err)
		return nil, err
	}

	rt := r.rt
	l := &List[T]{
		r:         r,
		opts:      opts,
		container: container,
		parent:    parent,
		owner:     rt.NewOwner(rt.CurrentOwner()),
		depth:     r.depth,
		meta:      map[*dom.Node]*row{},
	}
	r.own(container)
	l.owner.OnCleanup(func() {
		r.disown(container)
	})
	l.owner.OnCleanup(l.clear)
	if err := rt.RunWithOwner(l.owner, func() error {
		l.effect = rt.CreateEffect(l.render, reactive.Named("list"))
		return nil
	}); err != nil {
		return nil, err
	}
	return l, nil
}

// Dispose kills the list effect and every row, freeing their scopes.
func (l *List[T]) Dispose() {
	l.owner.Dispose()
}

func (l *List[T]) Effect() *reactive.Effect {
	return l.effect
}

// Keys are the effective keys currently rendered, in order.
func (l *List[T]) Keys() []any {
	return append([]any(nil), l.keys...)
}

func (l *List[T]) Len() int {
	return len(l.keys)
}

// Nodes are the rendered row nodes, in order.
func (l *List[T]) Nodes() []*dom.Node {
	out := make([]*dom.Node, len(l.keys))
	for i, k := range l.keys {
		out[i] = l.rows[k].Node
	}
	return out
}

// Scope returns the scope of the row rendered at i.
func (l *List[T]) Scope(i int) *arena.FlatScope {
	if i < 0 || i >= len(l.keys) {
		return nil
	}
	return l.meta[l.rows[l.keys[i]].Node].scope
}

// Stats are the counters of the last reconcile pass.
func (l *List[T]) Stats() keyed.Stats {
	return l.stats
}

func (l *List[T]) Passes() int {
	return l.passes
}

func (l *List[T]) render() error {
	items := l.opts.Source()
	l.r.rt.Untrack(func() {
		l.reconcile(items)
	})
	return nil
}

func (l *List[T]) reconcile(items []T) {
	rt, ar := l.r.rt, l.r.ar
	ar.Sweep()

	cb := keyed.Callbacks[T, *dom.Node]{
		Create: l.create,
		Update: l.update,
		Remove: l.remove,
		Insert: l.place,
		Move:   l.place,
		OnError: func(err error) {
			rt.Report(l, err)
		},
	}
	if l.opts.Key != nil {
		cb.Key = func(item T, index int) any {
			return l.opts.Key(item, index, l.parent)
		}
	}
	if l.opts.Keep != nil {
		cb.Keep = func(item T, index int) bool {
			return l.opts.Keep(item, index, l.parent)
		}
	}

	res := keyed.Reconcile(l.keys, l.rows, items, cb)
	l.keys, l.rows = res.Keys, res.Rows
	l.stats = res.Stats
	l.passes++
	if l.opts.OnReconcile != nil {
		l.opts.OnReconcile(res.Stats)
	}

	// failures are reported through the walk's error handler
	l.r.walk.Drain()
}

func (l *List[T]) create(item T, index int) (*dom.Node, error) {
	rt, ar := l.r.rt, l.r.ar
	scope := ar.NewScope(l.parent, l.opts.Item, l.opts.Index)
	rw := &row{scope: scope, owner: rt.NewOwner(l.owner)}
	rw.item, _ = scope.Own(l.opts.Item)
	ar.Set(rw.item, item)
	if id, ok := scope.Own(l.opts.Index); ok {
		rw.index = id
		ar.Set(id, index)
	}

	var node *dom.Node
	err := l.r.at(l.depth+2, func() error {
		return rt.RunWithOwner(rw.owner, func() (err error) {
			node, err = l.opts.Render(scope)
			return err
		})
	})
	if err != nil || node == nil {
		rw.release(ar)
		return nil, err
	}

	l.meta[node] = rw
	ids := scope.IDs()
	runtime.SetFinalizer(rw, func(*row) {
		ar.ReleaseLater(ids...)
	})
	l.r.schedule(node, scope, rw.owner, l.depth)
	return node, nil
}

func (l *List[T]) update(node *dom.Node, item T, index int) error {
	rw, ok := l.meta[node]
	if !ok {
		return errors.New("directive: update of a node the list did not create")
	}
	l.set(rw.item, item)
	if rw.index != 0 {
		l.set(rw.index, index)
	}
	return nil
}

// set stores v and notifies bindings that read id when it changed. Values that
// cannot be compared always count as changed.
func (l *List[T]) set(id arena.ID, v any) {
	ar := l.r.ar
	old, _ := ar.Get(id)
	if same(old, v) {
		return
	}
	ar.Set(id, v)
	l.r.rt.Notify(ar, id)
}

func same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !reflect.ValueOf(a).Comparable() {
		return false
	}
	return a == b
}

func (l *List[T]) remove(node *dom.Node) error {
	rw, ok := l.meta[node]
	if !ok {
		return errors.New("directive: remove of a node the list did not create")
	}
	delete(l.meta, node)
	freed := rw.release(l.r.ar)
	if glog.V(3) {
		glog.Infof("directive: row removed, %d ids freed", freed)
	}
	if node.Parent == l.container {
		return l.container.RemoveChild(node)
	}
	return nil
}

func (l *List[T]) place(node, before *dom.Node) error {
	return l.container.InsertBefore(node, before)
}

// clear runs when the list's owner is disposed, after every row owner.
func (l *List[T]) clear() {
	ar := l.r.ar
	for _, k := range l.keys {
		node := l.rows[k].Node
		if rw, ok := l.meta[node]; ok {
			rw.release(ar)
		}
		if node.Parent == l.container {
			l.container.RemoveChild(node)
		}
	}
	l.keys, l.rows = nil, nil
	l.meta = map[*dom.Node]*row{}
}
