package reactive

import "time"

const (
	DefaultMaxFlushRuns = 10_000
	DefaultMaxReentry   = 100
)

// Observer receives runtime events. pkg/telemetry provides an implementation.
type Observer interface {
	EffectRun(e *Effect, took time.Duration, err error)
	Flushed(stats FlushStats)
}

// FlushStats describes one drained flush.
type FlushStats struct {
	Runtime string
	Runs    int
	Started time.Time
	Took    time.Duration
	Err     error
}

type Option func(*Runtime)

// WithErrorHandler replaces the default glog error handler.
func WithErrorHandler(fn OnErrorFunc) Option {
	return func(rt *Runtime) {
		if fn != nil {
			rt.onError = fn
		}
	}
}

// WithMaxFlushRuns caps how many effect runs a single flush may perform before
// it is aborted with a *CycleError. Zero or negative disables the cap.
func WithMaxFlushRuns(n int) Option {
	return func(rt *Runtime) {
		rt.sched.maxRuns = n
	}
}

// WithMaxReentry caps synchronous self-triggered re-runs of one effect.
func WithMaxReentry(n int) Option {
	return func(rt *Runtime) {
		if n > 0 {
			rt.maxReentry = n
		}
	}
}

// WithMicrotask hands flushing to the host's event loop: post is called at most
// once per tick with the function that drains the queue.
func WithMicrotask(post func(flush func())) Option {
	return func(rt *Runtime) {
		rt.sched.post = post
	}
}

func WithObserver(o Observer) Option {
	return func(rt *Runtime) {
		rt.observer = o
	}
}

// EffectOption configures a single Effect.
type EffectOption func(*Effect)

// Deferred makes an effect that notifies itself while running re-queue into the
// scheduler instead of re-running synchronously. The queued run happens later in
// the same flush, so intermediate values may be observed by other effects queued
// in between; bindings that must show the final value of a tick should not use it.
func Deferred() EffectOption {
	return func(e *Effect) {
		e.deferred = true
	}
}

// Named attaches a name used in logs and metrics.
func Named(name string) EffectOption {
	return func(e *Effect) {
		e.name = name
	}
}
