package reactive

// Owner is a disposal token. Effects created while it is current, its child
// owners and its cleanups all go away when it is disposed.
type Owner struct {
	rt     *Runtime
	parent *Owner

	// children form an intrusive list so a child detaches in O(1).
	first, last *Owner
	prev, next  *Owner

	effects  []*Effect
	cleanups []func()
	disposed bool
}

// NewOwner creates an owner. A nil parent makes a root that only goes away when
// disposed explicitly.
func (rt *Runtime) NewOwner(parent *Owner) *Owner {
	o := &Owner{rt: rt, parent: parent}
	if parent != nil {
		if parent.disposed {
			o.disposed = true
			return o
		}
		parent.appendChild(o)
	}
	return o
}

func (o *Owner) Disposed() bool {
	return o.disposed
}

// Effects is the number of live effects owned directly.
func (o *Owner) Effects() int {
	return len(o.effects)
}

// OnCleanup registers fn to run on disposal. On a disposed owner fn runs at once.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed {
		fn()
		return
	}
	o.cleanups = append(o.cleanups, fn)
}

// Dispose releases children in reverse creation order, kills owned effects and
// then runs cleanups last-registered first.
func (o *Owner) Dispose() {
	if o.disposed {
		return
	}
	o.reset()
	o.disposed = true
	if o.parent != nil {
		o.parent.removeChild(o)
		o.parent = nil
	}
}

func (o *Owner) reset() {
	rt := o.rt
	rt.PauseTracking()
	defer rt.ResumeTracking()

	for c := o.last; c != nil; c = o.last {
		o.removeChild(c)
		c.parent = nil
		c.Dispose()
	}

	effects := o.effects
	o.effects = nil
	for _, e := range effects {
		e.owner = nil
		e.Kill()
	}

	cleanups := o.cleanups
	o.cleanups = nil
	for i := len(cleanups) - 1; i >= 0; i-- {
		if err := Protect(func() error {
			cleanups[i]()
			return nil
		}); err != nil {
			rt.Report(o, err)
		}
	}
}

func (o *Owner) appendChild(child *Owner) {
	child.prev = o.last
	if o.last != nil {
		o.last.next = child
	} else {
		o.first = child
	}
	o.last = child
}

func (o *Owner) removeChild(child *Owner) {
	if child.prev != nil {
		child.prev.next = child.next
	} else {
		o.first = child.next
	}
	if child.next != nil {
		child.next.prev = child.prev
	} else {
		o.last = child.prev
	}
	child.prev, child.next = nil, nil
}

// Children is the number of live child owners.
func (o *Owner) Children() int {
	n := 0
	for c := o.first; c != nil; c = c.next {
		n++
	}
	return n
}

func (o *Owner) forget(e *Effect) {
	for i, x := range o.effects {
		if x == e {
			o.effects = append(o.effects[:i], o.effects[i+1:]...)
			return
		}
	}
}
