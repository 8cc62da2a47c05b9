package reactive

import "github.com/cespare/xxhash/v2"

// Flags is the lifecycle state of an Effect.
type Flags uint8

const (
	FlagActive Flags = 1 << iota
	FlagRunning
	FlagQueued

	// fRecursed marks an effect notified while it was running itself.
	fRecursed
)

func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

func (f Flags) String() string {
	s := ""
	add := func(name string) {
		if s != "" {
			s += "|"
		}
		s += name
	}
	if f.Has(FlagActive) {
		add("ACTIVE")
	}
	if f.Has(FlagRunning) {
		add("RUNNING")
	}
	if f.Has(FlagQueued) {
		add("QUEUED")
	}
	if s == "" {
		return "KILLED"
	}
	return s
}

type iterateKey uint64

// IterateKey is the wildcard key notified whenever a collection changes shape
// (length or membership). It has its own type so no user key can collide with it.
var IterateKey any = iterateKey(xxhash.Sum64String("ITERATE"))

type valueKey uint64

// ValueKey is the key a Signal tracks and notifies for its whole value.
var ValueKey any = valueKey(xxhash.Sum64String("VALUE"))
