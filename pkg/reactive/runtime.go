package reactive

import (
	"sync"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"
)

// Runtime owns one Dependency Store and one Scheduler. Independent runtimes never
// share state.
//
// A Runtime is single-threaded: every method must be called from one logical
// thread at a time. Hosts that mutate state from several goroutines go through
// Do, which serialises whole turns behind the scheduler-owned mutex.
type Runtime struct {
	id string
	mu sync.Mutex

	deps  *DependencyStore
	sched *scheduler

	active     *Effect
	owner      *Owner
	pauseStack []*Effect
	batchDepth int

	effects    map[*Effect]struct{}
	nextID     uint64
	maxReentry int

	onError  OnErrorFunc
	observer Observer
}

func CreateRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		id:         ulid.Make().String(),
		deps:       newDependencyStore(),
		effects:    map[*Effect]struct{}{},
		maxReentry: DefaultMaxReentry,
		onError:    defaultOnError,
	}
	rt.sched = &scheduler{rt: rt, maxRuns: DefaultMaxFlushRuns}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Runtime) ID() string {
	return rt.id
}

func (rt *Runtime) Deps() *DependencyStore {
	return rt.deps
}

// Effects is the number of live (not killed) effects.
func (rt *Runtime) Effects() int {
	return len(rt.effects)
}

// Pending is the number of effects waiting for the next flush.
func (rt *Runtime) Pending() int {
	return rt.sched.pending()
}

// Current returns the effect currently running, if any.
func (rt *Runtime) Current() *Effect {
	return rt.active
}

// Track records that the running effect read (source, key). Outside an effect it
// does nothing. Sources and keys must be comparable.
func (rt *Runtime) Track(source, key any) {
	e := rt.active
	if e == nil || !e.flags.Has(FlagActive) {
		return
	}
	rt.deps.link(e, source, key)
}

// Notify queues every effect that depends on (source, key). Outside a batch the
// queue is flushed before Notify returns.
func (rt *Runtime) Notify(source, key any) {
	subs := rt.deps.subscribers(source, key)
	if len(subs) == 0 {
		return
	}
	rt.StartBatch()
	for _, e := range subs {
		rt.schedule(e)
	}
	rt.EndBatch()
}

// NotifyShape notifies the iterate key of a collection source.
func (rt *Runtime) NotifyShape(source any) {
	rt.Notify(source, IterateKey)
}

func (rt *Runtime) schedule(e *Effect) {
	flags := e.flags
	switch {
	case !flags.Has(FlagActive):
	case flags.Has(FlagRunning):
		e.flags |= fRecursed
	case flags.Has(FlagQueued):
	default:
		e.flags |= FlagQueued
		rt.sched.enqueue(e)
	}
}

func (rt *Runtime) StartBatch() {
	rt.batchDepth++
}

// EndBatch closes a batch; closing the outermost one flushes the queue unless
// flushing was handed to a microtask hook.
func (rt *Runtime) EndBatch() error {
	rt.batchDepth--
	if rt.batchDepth > 0 || rt.sched.post != nil {
		return nil
	}
	return rt.sched.flush()
}

// Batch runs fn as one synchronous turn. Effects run once, after fn returns,
// against the final values.
func (rt *Runtime) Batch(fn func()) (err error) {
	rt.StartBatch()
	defer func() {
		err = rt.EndBatch()
	}()
	fn()
	return nil
}

// Do is Batch serialised by the runtime mutex, for hosts with several goroutines.
func (rt *Runtime) Do(fn func()) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.Batch(fn)
}

// Flush drains the queue now.
func (rt *Runtime) Flush() error {
	return rt.sched.flush()
}

func (rt *Runtime) PauseTracking() {
	rt.pauseStack = append(rt.pauseStack, rt.active)
	rt.active = nil
}

func (rt *Runtime) ResumeTracking() {
	lastIdx := len(rt.pauseStack) - 1
	rt.active = rt.pauseStack[lastIdx]
	rt.pauseStack = rt.pauseStack[:lastIdx]
}

// Untrack runs fn without a current runner, so reads inside it create no edges.
func (rt *Runtime) Untrack(fn func()) {
	rt.PauseTracking()
	defer rt.ResumeTracking()
	fn()
}

// CurrentOwner is the owner new effects and cleanups attach to.
func (rt *Runtime) CurrentOwner() *Owner {
	return rt.owner
}

// RunWithOwner runs fn with o as the current owner.
func (rt *Runtime) RunWithOwner(o *Owner, fn func() error) error {
	prev := rt.owner
	rt.owner = o
	defer func() {
		rt.owner = prev
	}()
	return Protect(fn)
}

// OnCleanup registers fn on the current owner. It reports false when there is none.
func (rt *Runtime) OnCleanup(fn func()) bool {
	if rt.owner == nil {
		return false
	}
	rt.owner.OnCleanup(fn)
	return true
}

// Report forwards an error to the runtime's error handler.
func (rt *Runtime) Report(from any, err error) {
	if err == nil {
		return
	}
	rt.onError(from, err)
}

// CheckConsistency verifies that every edge in the Dependency Store is held by
// its effect and vice versa.
func (rt *Runtime) CheckConsistency() error {
	effects := make([]*Effect, 0, len(rt.effects))
	for e := range rt.effects {
		effects = append(effects, e)
	}
	if err := rt.deps.check(effects); err != nil {
		glog.Warningf("runtime %s: %v", rt.id, err)
		return err
	}
	return nil
}
