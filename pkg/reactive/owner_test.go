package reactive_test

import (
	"testing"

	"github.com/delaneyj/rowsignal/pkg/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// should dispose inner effects when the outer effect re-runs
func TestOwnerNestedEffectsDisposedOnRerun(t *testing.T) {
	rt := newRuntime(t)
	outer := reactive.Signal(rt, 0)
	inner := reactive.Signal(rt, 0)

	innerRuns := 0
	rt.CreateEffect(func() error {
		outer.Value()
		rt.CreateEffect(func() error {
			innerRuns++
			inner.Value()
			return nil
		})
		return nil
	})
	assert.Equal(t, 1, innerRuns)
	assert.Equal(t, 2, rt.Effects())

	outer.SetValue(1)
	assert.Equal(t, 2, innerRuns)
	assert.Equal(t, 2, rt.Effects(), "the stale inner effect was killed")

	inner.SetValue(1)
	assert.Equal(t, 3, innerRuns, "only the live inner effect re-runs")
	require.NoError(t, rt.CheckConsistency())
}

func TestOwnerDispose(t *testing.T) {
	rt := newRuntime(t)
	a := reactive.Signal(rt, 0)

	root := rt.NewOwner(nil)
	child := rt.NewOwner(root)

	log := []string{}
	runs := 0
	require.NoError(t, rt.RunWithOwner(child, func() error {
		rt.CreateEffect(func() error {
			runs++
			a.Value()
			return nil
		})
		rt.OnCleanup(func() { log = append(log, "child-1") })
		rt.OnCleanup(func() { log = append(log, "child-2") })
		return nil
	}))
	root.OnCleanup(func() { log = append(log, "root") })
	assert.Equal(t, 1, child.Effects())

	root.Dispose()
	assert.True(t, root.Disposed())
	assert.True(t, child.Disposed())
	assert.Equal(t, []string{"child-2", "child-1", "root"}, log)
	assert.Equal(t, 0, rt.Deps().Len())

	a.SetValue(1)
	assert.Equal(t, 1, runs)

	root.Dispose()
	assert.Len(t, log, 3, "dispose is idempotent")

	late := false
	root.OnCleanup(func() { late = true })
	assert.True(t, late, "cleanup on a disposed owner runs at once")
}

func TestOwnerEffectOnDisposedOwnerNeverRuns(t *testing.T) {
	rt := newRuntime(t)
	o := rt.NewOwner(nil)
	o.Dispose()

	runs := 0
	var e *reactive.Effect
	require.NoError(t, rt.RunWithOwner(o, func() error {
		e = rt.CreateEffect(func() error {
			runs++
			return nil
		})
		return nil
	}))
	assert.Equal(t, 0, runs)
	assert.False(t, e.Active())
}

func TestOwnerKilledEffectLeavesOwner(t *testing.T) {
	rt := newRuntime(t)
	o := rt.NewOwner(nil)

	var e *reactive.Effect
	require.NoError(t, rt.RunWithOwner(o, func() error {
		e = rt.CreateEffect(func() error { return nil })
		return nil
	}))
	assert.Equal(t, 1, o.Effects())
	e.Kill()
	assert.Equal(t, 0, o.Effects())
}

func TestRunWithOwnerRecoversPanics(t *testing.T) {
	rt := newRuntime(t)
	err := rt.RunWithOwner(nil, func() error {
		panic("nope")
	})
	var pe *reactive.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Nil(t, rt.CurrentOwner())
}

func TestOwnerChildrenDetachOutOfOrder(t *testing.T) {
	rt := newRuntime(t)
	root := rt.NewOwner(nil)

	var order []int
	kids := make([]*reactive.Owner, 5)
	for i := range kids {
		i := i // per-iteration copy: module targets go 1.21 (pre-1.22 loopvar semantics)
		kids[i] = rt.NewOwner(root)
		kids[i].OnCleanup(func() { order = append(order, i) })
	}
	assert.Equal(t, 5, root.Children())

	kids[2].Dispose()
	kids[0].Dispose()
	kids[4].Dispose()
	assert.Equal(t, 2, root.Children())
	assert.Equal(t, []int{2, 0, 4}, order)

	kids[4].Dispose()
	assert.Equal(t, 2, root.Children(), "disposing twice is a no-op")

	late := rt.NewOwner(root)
	late.OnCleanup(func() { order = append(order, 5) })

	root.Dispose()
	assert.Zero(t, root.Children())
	assert.Equal(t, []int{2, 0, 4, 5, 3, 1}, order, "remaining children go last-created first")
	assert.True(t, kids[1].Disposed())
}
