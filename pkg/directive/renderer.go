// Package directive connects the reactive runtime, the scope arena, the keyed
// reconciler and the walk coordinator into list and value bindings over a
// dom tree.
package directive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/delaneyj/rowsignal/pkg/arena"
	"github.com/delaneyj/rowsignal/pkg/dom"
	"github.com/delaneyj/rowsignal/pkg/reactive"
	"github.com/delaneyj/rowsignal/pkg/walk"
)

// MarkerAttr is set on the node where a walk was aborted.
const MarkerAttr = "data-walk-error"

// ErrSkipChildren returned by a Directive stops the walk from descending into
// the node's children. It is not reported.
var ErrSkipChildren = errors.New("directive: skip children")

// Context is what a Directive sees of the row it is applied in.
type Context struct {
	Runtime  *reactive.Runtime
	Arena    *arena.Arena
	Document *dom.Document
	Scope    *arena.FlatScope
}

func (c Context) Lookup(name string) (any, bool) {
	return Lookup(c.Runtime, c.Arena, c.Scope, name)
}

// Directive is applied to every element carrying its attribute. For an
// attribute "x-attr:title" the directive registered as "x-attr" gets arg
// "title".
type Directive func(ctx Context, n *dom.Node, arg, value string) error

type RendererOption func(*Renderer)

func WithMaxDepth(n int) RendererOption {
	return func(r *Renderer) {
		r.walkOpts = append(r.walkOpts, walk.WithMaxDepth(n))
	}
}

// WithDirective registers d under name, replacing a built-in of the same name.
func WithDirective(name string, d Directive) RendererOption {
	return func(r *Renderer) {
		r.directives[name] = d
	}
}

// Renderer applies directives to subtrees. One Renderer serves every list of a
// runtime, so nested lists share a single walk.
type Renderer struct {
	rt  *reactive.Runtime
	ar  *arena.Arena
	doc *dom.Document

	directives map[string]Directive
	walkOpts   []walk.Option
	walk       *walk.Coordinator[target]

	// containers are nodes whose children belong to a List; the walk never
	// descends into them.
	containers map[*dom.Node]int
	// depth is where the rows of a List created right now start.
	depth int
}

func NewRenderer(rt *reactive.Runtime, ar *arena.Arena, doc *dom.Document, opts ...RendererOption) *Renderer {
	r := &Renderer{
		rt:  rt,
		ar:  ar,
		doc:        doc,
		containers: map[*dom.Node]int{},
		directives: map[string]Directive{
			"x-text":   textDirective,
			"x-attr":   attrDirective,
			"x-ignore": ignoreDirective,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.walkOpts = append(r.walkOpts, walk.WithErrorHandler(func(err error) {
		rt.Report(r, err)
	}))
	r.walk = walk.New[target](&walker{r: r}, r.walkOpts...)
	return r
}

func (r *Renderer) Runtime() *reactive.Runtime {
	return r.rt
}

func (r *Renderer) Arena() *arena.Arena {
	return r.ar
}

func (r *Renderer) Document() *dom.Document {
	return r.doc
}

func (r *Renderer) WalkStats() walk.Stats {
	return r.walk.Stats()
}

// Apply walks n with scope, creating bindings owned by the current owner.
func (r *Renderer) Apply(n *dom.Node, scope *arena.FlatScope) error {
	r.schedule(n, scope, r.rt.CurrentOwner(), 0)
	return r.walk.Drain()
}

func (r *Renderer) schedule(n *dom.Node, scope *arena.FlatScope, owner *reactive.Owner, depth int) {
	r.walk.Schedule(target{node: n, scope: scope, owner: owner}, depth)
}

// at runs fn with depth as the row depth for lists it creates.
func (r *Renderer) at(depth int, fn func() error) error {
	prev := r.depth
	r.depth = depth
	defer func() {
		r.depth = prev
	}()
	return fn()
}

func (r *Renderer) own(container *dom.Node) {
	r.containers[container]++
}

func (r *Renderer) disown(container *dom.Node) {
	if r.containers[container] <= 1 {
		delete(r.containers, container)
		return
	}
	r.containers[container]--
}

type target struct {
	node  *dom.Node
	scope *arena.FlatScope
	owner *reactive.Owner
}

type walker struct {
	r *Renderer
}

func (w *walker) Apply(t target, depth int) (bool, error) {
	if t.node.Kind != dom.KindElement {
		return false, nil
	}
	r := w.r
	ctx := Context{Runtime: r.rt, Arena: r.ar, Document: r.doc, Scope: t.scope}
	descend := true
	err := r.at(depth+1, func() error {
		return r.rt.RunWithOwner(t.owner, func() error {
			return w.directives(ctx, t.node, &descend)
		})
	})
	if r.containers[t.node] > 0 {
		descend = false
	}
	return descend, err
}

func (w *walker) directives(ctx Context, n *dom.Node, descend *bool) error {
	r := w.r
	for _, name := range n.AttrNames() {
		base, arg, _ := strings.Cut(name, ":")
		d, ok := r.directives[base]
		if !ok {
			continue
		}
		value, _ := n.Attr(name)
		if err := d(ctx, n, arg, value); err != nil {
			if errors.Is(err, ErrSkipChildren) {
				*descend = false
				continue
			}
			return fmt.Errorf("%s=%q: %w", name, value, err)
		}
	}
	return nil
}

func (w *walker) Children(t target) []target {
	out := make([]target, len(t.node.Children))
	for i, c := range t.node.Children {
		out[i] = target{node: c, scope: t.scope, owner: t.owner}
	}
	return out
}

func (w *walker) Mark(t target, err error) {
	t.node.SetAttr(MarkerAttr, err.Error())
}

func textDirective(ctx Context, n *dom.Node, _, value string) error {
	if _, ok := ctx.Scope.Lookup(value); !ok {
		return fmt.Errorf("unknown variable %q", value)
	}
	Text(ctx.Runtime, n, func() string {
		v, _ := ctx.Lookup(value)
		return format(v)
	})
	return nil
}

func attrDirective(ctx Context, n *dom.Node, arg, value string) error {
	if arg == "" {
		return errors.New("missing attribute name")
	}
	if _, ok := ctx.Scope.Lookup(value); !ok {
		return fmt.Errorf("unknown variable %q", value)
	}
	Attr(ctx.Runtime, n, arg, func() string {
		v, _ := ctx.Lookup(value)
		return format(v)
	})
	return nil
}

func ignoreDirective(Context, *dom.Node, string, string) error {
	return ErrSkipChildren
}
