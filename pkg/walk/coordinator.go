// Package walk applies directives to freshly created subtrees with an explicit
// stack instead of recursion, so deep or generated structures cannot overflow
// the goroutine stack.
package walk

import (
	"fmt"
	"runtime/debug"

	"github.com/golang/glog"
)

// DefaultMaxDepth bounds how deep a single walk may go.
const DefaultMaxDepth = 256

// Walker is supplied by the directive layer for one node type.
type Walker[N any] interface {
	// Apply processes n and reports whether its children should be walked.
	Apply(n N, depth int) (descend bool, err error)
	Children(n N) []N
	// Mark leaves a diagnosable marker on the node where a walk was aborted.
	Mark(n N, err error)
}

// DepthError aborts a walk that went deeper than the configured limit.
type DepthError struct {
	Depth int
	Limit int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("walk: depth %d exceeds limit %d, suspected self-referential structure", e.Depth, e.Limit)
}

// ApplyError is a failed Apply. The node's subtree is skipped and the walk
// carries on with its siblings.
type ApplyError struct {
	Depth int
	Err   error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("walk: apply at depth %d: %v", e.Depth, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

type Option func(*config)

type config struct {
	maxDepth int
	onError  func(error)
}

func WithMaxDepth(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithErrorHandler receives every ApplyError and DepthError.
func WithErrorHandler(fn func(error)) Option {
	return func(c *config) {
		if fn != nil {
			c.onError = fn
		}
	}
}

type frame[N any] struct {
	node  N
	depth int
}

type Stats struct {
	Visited int
	Failed  int
	Aborted int
}

// Coordinator owns the pending work of one rendering root. It is not safe for
// concurrent use; it runs on the same logical thread as the runtime.
type Coordinator[N any] struct {
	walker   Walker[N]
	cfg      config
	stack    []frame[N]
	draining bool
	stats    Stats
}

func New[N any](w Walker[N], opts ...Option) *Coordinator[N] {
	c := &Coordinator[N]{
		walker: w,
		cfg: config{
			maxDepth: DefaultMaxDepth,
			onError: func(err error) {
				glog.Errorf("%v", err)
			},
		},
	}
	for _, opt := range opts {
		opt(&c.cfg)
	}
	return c
}

// Schedule pushes n to be walked at depth on the next Drain.
func (c *Coordinator[N]) Schedule(n N, depth int) {
	c.stack = append(c.stack, frame[N]{node: n, depth: depth})
}

// MaxDepth is the deepest depth a node may be walked at.
func (c *Coordinator[N]) MaxDepth() int {
	return c.cfg.maxDepth
}

func (c *Coordinator[N]) Pending() int {
	return len(c.stack)
}

func (c *Coordinator[N]) Stats() Stats {
	return c.stats
}

// Drain walks everything scheduled, including nodes scheduled while it runs.
// A Drain called from inside Apply returns nil at once; the outer Drain picks
// the new work up. Exceeding the depth limit marks the offending node, drops
// all pending work and returns a *DepthError; the coordinator stays usable.
func (c *Coordinator[N]) Drain() error {
	if c.draining {
		return nil
	}
	c.draining = true
	defer func() {
		c.draining = false
	}()

	for len(c.stack) > 0 {
		last := len(c.stack) - 1
		f := c.stack[last]
		c.stack = c.stack[:last]

		if f.depth > c.cfg.maxDepth {
			return c.abort(f)
		}

		c.stats.Visited++
		descend, err := c.apply(f)
		if err != nil {
			c.stats.Failed++
			c.cfg.onError(&ApplyError{Depth: f.depth, Err: err})
			continue
		}
		if !descend {
			continue
		}
		children := c.walker.Children(f.node)
		for i := len(children) - 1; i >= 0; i-- {
			c.Schedule(children[i], f.depth+1)
		}
	}
	return nil
}

// Walk schedules n at depth 0 and drains.
func (c *Coordinator[N]) Walk(n N) error {
	c.Schedule(n, 0)
	return c.Drain()
}

func (c *Coordinator[N]) apply(f frame[N]) (descend bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			descend = false
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return c.walker.Apply(f.node, f.depth)
}

func (c *Coordinator[N]) abort(f frame[N]) error {
	err := &DepthError{Depth: f.depth, Limit: c.cfg.maxDepth}
	dropped := len(c.stack)
	c.stack = c.stack[:0]
	c.stats.Aborted++

	c.walker.Mark(f.node, err)
	glog.Warningf("%v (dropped %d pending nodes)", err, dropped)
	c.cfg.onError(err)
	return err
}
