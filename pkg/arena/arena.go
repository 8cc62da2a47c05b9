// Package arena holds loop-scope variables in one flat, ID-indexed table.
//
// IDs are handed out from a monotonic counter and never reused, so freeing an
// ID twice, or freeing an ID some stale scope still names, can never touch a
// slot that belongs to a different variable.
package arena

import (
	"sync"

	"github.com/golang/glog"
)

// ID names one slot. The zero ID is never allocated.
type ID uint64

type slot struct {
	name  string
	value any
}

type Arena struct {
	slots map[ID]*slot
	next  ID
	freed int

	// release is filled from finalizers, which run on their own goroutine.
	releaseMu sync.Mutex
	release   []ID
}

func New() *Arena {
	return &Arena{slots: map[ID]*slot{}}
}

// Allocate returns a fresh ID for a variable called name.
func (a *Arena) Allocate(name string) ID {
	a.next++
	id := a.next
	a.slots[id] = &slot{name: name}
	return id
}

// Set stores v under id. It reports false when id is not allocated.
func (a *Arena) Set(id ID, v any) bool {
	s, ok := a.slots[id]
	if !ok {
		return false
	}
	s.value = v
	return true
}

func (a *Arena) Get(id ID) (any, bool) {
	s, ok := a.slots[id]
	if !ok {
		return nil, false
	}
	return s.value, true
}

// Name is the variable name id was allocated for.
func (a *Arena) Name(id ID) (string, bool) {
	s, ok := a.slots[id]
	if !ok {
		return "", false
	}
	return s.name, true
}

func (a *Arena) Has(id ID) bool {
	_, ok := a.slots[id]
	return ok
}

// Delete frees id. Freeing an ID that is not allocated is a no-op and reports false.
func (a *Arena) Delete(id ID) bool {
	if _, ok := a.slots[id]; !ok {
		return false
	}
	delete(a.slots, id)
	a.freed++
	return true
}

// Len is the number of allocated slots.
func (a *Arena) Len() int {
	return len(a.slots)
}

// Freed is the number of slots freed over the arena's lifetime.
func (a *Arena) Freed() int {
	return a.freed
}

// ReleaseLater queues ids for freeing on the next Sweep. It is safe to call from
// any goroutine, including finalizers.
func (a *Arena) ReleaseLater(ids ...ID) {
	a.releaseMu.Lock()
	a.release = append(a.release, ids...)
	a.releaseMu.Unlock()
}

// Sweep frees everything queued by ReleaseLater and reports how many slots were
// actually still allocated.
func (a *Arena) Sweep() int {
	a.releaseMu.Lock()
	ids := a.release
	a.release = nil
	a.releaseMu.Unlock()

	n := 0
	for _, id := range ids {
		if a.Delete(id) {
			n++
		}
	}
	if n > 0 {
		glog.V(1).Infof("arena: sweep freed %d leaked slots", n)
	}
	return n
}
