package reactive

type WriteableSignal[T comparable] struct {
	rt    *Runtime
	value T
}

func Signal[T comparable](rt *Runtime, initialValue T) *WriteableSignal[T] {
	return &WriteableSignal[T]{rt: rt, value: initialValue}
}

func (s *WriteableSignal[T]) Value() T {
	s.rt.Track(s, ValueKey)
	return s.value
}

// Peek reads without tracking.
func (s *WriteableSignal[T]) Peek() T {
	return s.value
}

func (s *WriteableSignal[T]) SetValue(v T) {
	if s.value == v {
		return
	}
	s.value = v
	s.rt.Notify(s, ValueKey)
}

func (s *WriteableSignal[T]) Update(fn func(oldValue T) T) {
	s.SetValue(fn(s.value))
}
