package reactive

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/golang/glog"
)

// OnErrorFunc receives every error raised by a user computation. from is the
// *Effect (or other runtime object) the error came from.
type OnErrorFunc func(from any, err error)

func defaultOnError(from any, err error) {
	if e, ok := from.(*Effect); ok {
		glog.Errorf("effect %d: %v", e.id, err)
		return
	}
	glog.Errorf("reactive: %v", err)
}

// ErrCycle is matched by errors.Is for every CycleError.
var ErrCycle = errors.New("reactive: effect cycle")

// CycleError aborts a flush that ran more effects than the configured cap.
// The usual cause is a self-referential dependency structure where effects
// keep notifying each other.
type CycleError struct {
	Runs    int
	Limit   int
	Suspect *Effect
	Count   int
}

func (e *CycleError) Error() string {
	return fmt.Sprintf(
		"reactive: flush exceeded %d effect runs; effect %d ran %d times, suspected self-referential structure",
		e.Limit, e.Suspect.ID(), e.Count,
	)
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// ReentryError is reported when an effect keeps notifying itself while running.
type ReentryError struct {
	Effect *Effect
	Limit  int
}

func (e *ReentryError) Error() string {
	return fmt.Sprintf("reactive: effect %d re-triggered itself %d times in one run", e.Effect.ID(), e.Limit)
}

func (e *ReentryError) Is(target error) bool {
	return target == ErrCycle
}

// PanicError wraps a panic recovered from a user computation.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Protect runs fn, converting a panic into a *PanicError.
func Protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
