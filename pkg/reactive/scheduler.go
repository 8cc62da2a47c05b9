package reactive

import (
	"time"

	"github.com/golang/glog"
)

// scheduler coalesces queued effects into one flush per turn. Effects queued
// while a flush is draining join the same flush.
type scheduler struct {
	rt       *Runtime
	queue    []*Effect
	head     int
	flushing bool
	posted   bool
	post     func(flush func())
	maxRuns  int
}

func (s *scheduler) enqueue(e *Effect) {
	s.queue = append(s.queue, e)
	if s.post != nil && !s.posted && !s.flushing {
		s.posted = true
		s.post(s.tick)
	}
}

func (s *scheduler) tick() {
	s.posted = false
	s.flush()
}

func (s *scheduler) pending() int {
	n := 0
	for _, e := range s.queue[s.head:] {
		if e.flags.Has(FlagQueued) {
			n++
		}
	}
	return n
}

// flush pops effects in FIFO order until the queue is empty.
func (s *scheduler) flush() error {
	if s.flushing || s.head == len(s.queue) {
		return nil
	}
	s.flushing = true
	rt := s.rt
	started := time.Now()

	var (
		err    error
		runs   int
		counts = map[*Effect]int{}
	)
	for s.head < len(s.queue) {
		e := s.queue[s.head]
		s.queue[s.head] = nil
		s.head++
		if !e.flags.Has(FlagQueued) {
			continue
		}
		if s.maxRuns > 0 && runs >= s.maxRuns {
			err = s.abort(e, runs, counts)
			break
		}
		runs++
		counts[e]++
		e.run()
	}
	s.queue = s.queue[:0]
	s.head = 0
	s.flushing = false

	if glog.V(2) {
		glog.Infof("runtime %s: flushed %d effects in %v", rt.id, runs, time.Since(started))
	}
	if rt.observer != nil {
		rt.observer.Flushed(FlushStats{
			Runtime: rt.id,
			Runs:    runs,
			Started: started,
			Took:    time.Since(started),
			Err:     err,
		})
	}
	if err != nil {
		glog.Warningf("runtime %s: %v", rt.id, err)
		rt.Report(rt, err)
	}
	return err
}

// abort drops everything still queued and names the effect that ran most.
func (s *scheduler) abort(next *Effect, runs int, counts map[*Effect]int) error {
	next.flags &^= FlagQueued
	for _, e := range s.queue[s.head:] {
		if e != nil {
			e.flags &^= FlagQueued
		}
	}

	var suspect *Effect
	for e, n := range counts {
		if suspect == nil || n > counts[suspect] || (n == counts[suspect] && e.id < suspect.id) {
			suspect = e
		}
	}
	if suspect == nil {
		suspect = next
	}
	return &CycleError{
		Runs:    runs,
		Limit:   s.maxRuns,
		Suspect: suspect,
		Count:   counts[suspect],
	}
}
