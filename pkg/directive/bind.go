package directive

import (
	"fmt"

	"github.com/delaneyj/rowsignal/pkg/arena"
	"github.com/delaneyj/rowsignal/pkg/dom"
	"github.com/delaneyj/rowsignal/pkg/reactive"
)

// Bind installs an effect that recomputes a value whenever its dependencies
// change and hands it to apply only when it differs from the last applied one.
func Bind[T comparable](rt *reactive.Runtime, compute func() T, apply func(T) error, opts ...reactive.EffectOption) *reactive.Effect {
	var (
		last    T
		applied bool
	)
	return rt.CreateEffect(func() error {
		v := compute()
		if applied && v == last {
			return nil
		}
		if err := apply(v); err != nil {
			return err
		}
		last, applied = v, true
		return nil
	}, opts...)
}

// Text keeps n's text content equal to compute.
func Text(rt *reactive.Runtime, n *dom.Node, compute func() string) *reactive.Effect {
	return Bind(rt, compute, func(s string) error {
		n.SetText(s)
		return nil
	}, reactive.Named("text"))
}

// Attr keeps attribute name of n equal to compute.
func Attr(rt *reactive.Runtime, n *dom.Node, name string, compute func() string) *reactive.Effect {
	return Bind(rt, compute, func(s string) error {
		n.SetAttr(name, s)
		return nil
	}, reactive.Named("attr:"+name))
}

// Lookup reads a loop variable visible from scope and, inside an effect, tracks
// it so the effect re-runs when the row's value is replaced.
func Lookup(rt *reactive.Runtime, ar *arena.Arena, scope *arena.FlatScope, name string) (any, bool) {
	id, ok := scope.Lookup(name)
	if !ok {
		return nil, false
	}
	rt.Track(ar, id)
	return ar.Get(id)
}

// Value is Lookup with a type assertion; a missing or mistyped variable yields
// the zero value.
func Value[T any](rt *reactive.Runtime, ar *arena.Arena, scope *arena.FlatScope, name string) T {
	v, _ := Lookup(rt, ar, scope, name)
	t, _ := v.(T)
	return t
}

func format(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
