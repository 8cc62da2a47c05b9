package reactive

import (
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

type EffectFunc func() error

// Effect is a computation that re-runs when any (source, key) it read during its
// last run is notified. Dependencies are rebuilt on every run.
type Effect struct {
	rt    *Runtime
	id    uint64
	name  string
	fn    EffectFunc
	flags Flags
	deps  mapset.Set[edge]

	// owner disposes this effect; scope is owned by it and collects nested
	// effects and cleanups of the current run.
	owner *Owner
	scope *Owner

	deferred bool
	runs     int
}

// CreateEffect installs fn and runs it once immediately.
func (rt *Runtime) CreateEffect(fn EffectFunc, opts ...EffectOption) *Effect {
	rt.nextID++
	e := &Effect{
		rt:    rt,
		id:    rt.nextID,
		fn:    fn,
		flags: FlagActive,
		deps:  mapset.NewThreadUnsafeSet[edge](),
		owner: rt.owner,
	}
	e.scope = &Owner{rt: rt}
	for _, opt := range opts {
		opt(e)
	}

	if e.owner != nil {
		if e.owner.disposed {
			e.flags = 0
			return e
		}
		e.owner.effects = append(e.owner.effects, e)
	}
	rt.effects[e] = struct{}{}

	rt.StartBatch()
	e.run()
	rt.EndBatch()
	return e
}

func (e *Effect) ID() uint64 {
	return e.id
}

func (e *Effect) Name() string {
	return e.name
}

func (e *Effect) Flags() Flags {
	return e.flags
}

func (e *Effect) Active() bool {
	return e.flags.Has(FlagActive)
}

// Runs is how many times the body has executed.
func (e *Effect) Runs() int {
	return e.runs
}

// Deps is the number of (source, key) edges the effect currently holds.
func (e *Effect) Deps() int {
	return e.deps.Cardinality()
}

// Run executes the effect now. Calling it from inside its own body schedules a
// re-run after the body returns instead of recursing. After Kill it is a no-op.
func (e *Effect) Run() error {
	e.rt.StartBatch()
	e.run()
	return e.rt.EndBatch()
}

// Kill stops the effect for good: cleanups and nested effects of the last run
// are disposed first, then every dependency edge is removed. Killing twice is a
// no-op.
func (e *Effect) Kill() {
	if !e.flags.Has(FlagActive) {
		return
	}
	rt := e.rt
	e.flags &^= FlagActive | FlagQueued | fRecursed
	e.scope.Dispose()
	rt.deps.clear(e)
	delete(rt.effects, e)
	if e.owner != nil {
		e.owner.forget(e)
	}
}

func (e *Effect) run() {
	rt := e.rt
	if !e.flags.Has(FlagActive) {
		return
	}
	if e.flags.Has(FlagRunning) {
		e.flags |= fRecursed
		return
	}

	for reruns := 1; ; reruns++ {
		e.flags = e.flags&^(FlagQueued|fRecursed) | FlagRunning
		e.scope.reset()
		rt.deps.clear(e)

		start := time.Now()
		err := e.execute()
		e.flags &^= FlagRunning
		e.runs++
		if err != nil {
			rt.Report(e, err)
		}
		if rt.observer != nil {
			rt.observer.EffectRun(e, time.Since(start), err)
		}

		if !e.flags.Has(FlagActive) {
			// killed by its own body
			rt.deps.clear(e)
			return
		}
		if !e.flags.Has(fRecursed) {
			return
		}
		if e.deferred {
			e.flags = e.flags&^fRecursed | FlagQueued
			rt.sched.enqueue(e)
			return
		}
		if reruns >= rt.maxReentry {
			e.flags &^= fRecursed
			rt.Report(e, &ReentryError{Effect: e, Limit: rt.maxReentry})
			return
		}
	}
}

func (e *Effect) execute() error {
	rt := e.rt
	prevActive, prevOwner := rt.active, rt.owner
	rt.active, rt.owner = e, e.scope
	defer func() {
		rt.active, rt.owner = prevActive, prevOwner
	}()
	return Protect(e.fn)
}
