package reactive_test

import (
	"errors"
	"testing"

	"github.com/delaneyj/rowsignal/pkg/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRuntime(t *testing.T, opts ...reactive.Option) *reactive.Runtime {
	t.Helper()
	opts = append([]reactive.Option{
		reactive.WithErrorHandler(func(from any, err error) {
			assert.FailNow(t, err.Error())
		}),
	}, opts...)
	return reactive.CreateRuntime(opts...)
}

func collectErrors(errs *[]error) reactive.Option {
	return reactive.WithErrorHandler(func(from any, err error) {
		*errs = append(*errs, err)
	})
}

func TestEffectRunsImmediately(t *testing.T) {
	rt := newRuntime(t)
	a := reactive.Signal(rt, 1)

	seen := []int{}
	e := rt.CreateEffect(func() error {
		seen = append(seen, a.Value())
		return nil
	})

	assert.Equal(t, []int{1}, seen)
	assert.Equal(t, reactive.FlagActive, e.Flags())
	assert.Equal(t, 1, e.Deps())

	a.SetValue(2)
	assert.Equal(t, []int{1, 2}, seen)

	a.SetValue(2)
	assert.Equal(t, []int{1, 2}, seen, "equal value must not notify")
}

func TestEffectCoalescesSynchronousWrites(t *testing.T) {
	rt := newRuntime(t)
	a := reactive.Signal(rt, 0)

	seen := []int{}
	rt.CreateEffect(func() error {
		seen = append(seen, a.Value())
		return nil
	})

	err := rt.Batch(func() {
		for i := 1; i <= 10; i++ {
			a.SetValue(i)
		}
		assert.Equal(t, []int{0}, seen, "no run may observe a partial batch")
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 10}, seen)
}

func TestEffectDynamicDependencies(t *testing.T) {
	rt := newRuntime(t)
	useA := reactive.Signal(rt, true)
	a := reactive.Signal(rt, "a")
	b := reactive.Signal(rt, "b")

	runs := 0
	e := rt.CreateEffect(func() error {
		runs++
		if useA.Value() {
			a.Value()
		} else {
			b.Value()
		}
		return nil
	})
	assert.Equal(t, 1, runs)
	assert.True(t, rt.Deps().Has(e, a, reactive.ValueKey))
	assert.False(t, rt.Deps().Has(e, b, reactive.ValueKey))

	b.SetValue("b2")
	assert.Equal(t, 1, runs, "b is not read yet")

	useA.SetValue(false)
	assert.Equal(t, 2, runs)
	assert.False(t, rt.Deps().Has(e, a, reactive.ValueKey))

	a.SetValue("a2")
	assert.Equal(t, 2, runs, "a edge was pruned")

	b.SetValue("b3")
	assert.Equal(t, 3, runs)
	require.NoError(t, rt.CheckConsistency())
}

func TestEffectKill(t *testing.T) {
	rt := newRuntime(t)
	a := reactive.Signal(rt, 1)

	runs := 0
	edgesAtCleanup := -1
	var e *reactive.Effect
	e = rt.CreateEffect(func() error {
		runs++
		a.Value()
		rt.OnCleanup(func() {
			edgesAtCleanup = e.Deps()
		})
		return nil
	})

	e.Kill()
	assert.Equal(t, 1, edgesAtCleanup, "cleanup runs before edges are dropped")
	assert.False(t, e.Active())
	assert.Equal(t, 0, e.Deps())
	assert.Equal(t, 0, rt.Deps().Len())
	assert.Equal(t, 0, rt.Effects())

	a.SetValue(2)
	assert.Equal(t, 1, runs)

	e.Kill()
	require.NoError(t, e.Run())
	assert.Equal(t, 1, runs, "run after kill is a no-op")
}

func TestEffectKillWhileQueued(t *testing.T) {
	rt := newRuntime(t)
	a := reactive.Signal(rt, 1)

	runs := 0
	e := rt.CreateEffect(func() error {
		runs++
		a.Value()
		return nil
	})

	require.NoError(t, rt.Batch(func() {
		a.SetValue(2)
		assert.True(t, e.Flags().Has(reactive.FlagQueued))
		e.Kill()
	}))
	assert.Equal(t, 1, runs)
}

func TestEffectCleanupBeforeRerun(t *testing.T) {
	rt := newRuntime(t)
	a := reactive.Signal(rt, 1)

	log := []string{}
	rt.CreateEffect(func() error {
		v := a.Value()
		log = append(log, "run")
		rt.OnCleanup(func() {
			log = append(log, "cleanup")
			assert.Equal(t, v, a.Peek()-1)
		})
		return nil
	})
	a.SetValue(2)
	assert.Equal(t, []string{"run", "cleanup", "run"}, log)
}

func TestEffectSelfTriggerRerunsSynchronously(t *testing.T) {
	rt := newRuntime(t)
	count := reactive.Signal(rt, 0)

	e := rt.CreateEffect(func() error {
		if v := count.Value(); v < 5 {
			count.SetValue(v + 1)
		}
		return nil
	})

	assert.Equal(t, 5, count.Peek())
	assert.Equal(t, 6, e.Runs())
	assert.Equal(t, reactive.FlagActive, e.Flags())
}

func TestEffectSelfTriggerGuard(t *testing.T) {
	var errs []error
	rt := reactive.CreateRuntime(collectErrors(&errs), reactive.WithMaxReentry(10))
	count := reactive.Signal(rt, 0)

	e := rt.CreateEffect(func() error {
		count.SetValue(count.Value() + 1)
		return nil
	})

	assert.Equal(t, 10, e.Runs())
	require.Len(t, errs, 1)
	var re *reactive.ReentryError
	require.ErrorAs(t, errs[0], &re)
	assert.Equal(t, e, re.Effect)
	assert.ErrorIs(t, errs[0], reactive.ErrCycle)
}

func TestEffectDeferredSelfTrigger(t *testing.T) {
	rt := newRuntime(t)
	count := reactive.Signal(rt, 0)

	e := rt.CreateEffect(func() error {
		if v := count.Value(); v < 3 {
			count.SetValue(v + 1)
		}
		return nil
	}, reactive.Deferred())

	assert.Equal(t, 3, count.Peek())
	assert.Equal(t, 4, e.Runs())
	assert.Equal(t, 0, rt.Pending())
}

func TestEffectErrorsAreIsolated(t *testing.T) {
	var errs []error
	rt := reactive.CreateRuntime(collectErrors(&errs))
	a := reactive.Signal(rt, 0)

	boom := errors.New("boom")
	seen := []int{}
	rt.CreateEffect(func() error {
		if a.Value() > 0 {
			return boom
		}
		return nil
	})
	rt.CreateEffect(func() error {
		if a.Value() > 0 {
			panic("kaboom")
		}
		return nil
	})
	rt.CreateEffect(func() error {
		seen = append(seen, a.Value())
		return nil
	})

	a.SetValue(1)
	assert.Equal(t, []int{0, 1}, seen)
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], boom)
	var pe *reactive.PanicError
	require.ErrorAs(t, errs[1], &pe)
	assert.Equal(t, "kaboom", pe.Value)
	require.NoError(t, rt.CheckConsistency())
}

func TestEffectUntrack(t *testing.T) {
	rt := newRuntime(t)
	a := reactive.Signal(rt, 1)
	b := reactive.Signal(rt, 1)

	runs := 0
	rt.CreateEffect(func() error {
		runs++
		a.Value()
		rt.Untrack(func() {
			b.Value()
		})
		return nil
	})

	b.SetValue(2)
	assert.Equal(t, 1, runs)
	a.SetValue(2)
	assert.Equal(t, 2, runs)
}

func TestRuntimesAreIndependent(t *testing.T) {
	rt1 := newRuntime(t)
	rt2 := newRuntime(t)
	assert.NotEqual(t, rt1.ID(), rt2.ID())

	a := reactive.Signal(rt1, 1)
	rt1.CreateEffect(func() error {
		a.Value()
		return nil
	})
	assert.Equal(t, 1, rt1.Deps().Len())
	assert.Equal(t, 0, rt2.Deps().Len())
}
