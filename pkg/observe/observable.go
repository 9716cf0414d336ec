package observe

import (
	"reflect"
	"sync"
)

// Observable is a Subscribable holding a single current value.
//
// Get reads the value and reports the observable to the current dependency
// detection frame; Peek reads without reporting. Writes go through the
// ValueWillMutate/ValueHasMutated barrier, which publishes EventBeforeChange
// and EventChange.
type Observable[T any] struct {
	*Subscribable

	// mu protects value and previous.
	mu       sync.RWMutex
	value    T
	previous T

	// source is what Get reports as a dependency. Wrappers such as
	// ObservableArray replace it with themselves.
	source Source

	// snapshot, when set, copies the value on every read and write so that
	// callers and notification payloads never share the held value. Wrappers
	// that mutate the value in place install it.
	snapshot func(T) T
}

// NewObservable creates an observable holding initial. Writes that compare
// equal to the current value are ignored; see WithEquals.
func NewObservable[T any](initial T, opts ...Option) *Observable[T] {
	o := &Observable[T]{
		Subscribable: &Subscribable{},
		value:        initial,
	}
	o.Subscribable.init(opts)
	o.Subscribable.holder = o
	o.Subscribable.equal = func(a, b any) bool {
		av, _ := a.(T)
		bv, _ := b.(T)
		return defaultEquals(av, bv)
	}
	o.source = o
	return o
}

// Get returns the current value and registers the observable with the
// current dependency detection frame.
func (o *Observable[T]) Get() T {
	value := o.Peek()

	registerDependency(o.source)
	return value
}

// Peek returns the current value without registering a dependency.
func (o *Observable[T]) Peek() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.copyOf(o.value)
}

// copyOf returns v, or a copy of it when a snapshot function is installed.
func (o *Observable[T]) copyOf(v T) T {
	if o.snapshot == nil {
		return v
	}
	return o.snapshot(v)
}

func (o *Observable[T]) peekAny() any {
	return o.Peek()
}

// Set writes value if it differs from the current value.
func (o *Observable[T]) Set(value T) {
	if !o.IsDifferent(o.Peek(), value) {
		return
	}
	o.ValueWillMutate()
	o.store(value)
	o.ValueHasMutated()
}

func (o *Observable[T]) store(value T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.value = o.copyOf(value)
}

// Update writes fn(current) if it differs from the current value.
func (o *Observable[T]) Update(fn func(T) T) {
	o.Set(fn(o.Peek()))
}

// ValueWillMutate is the pre-write barrier. It records the current value and
// publishes it as EventBeforeChange.
func (o *Observable[T]) ValueWillMutate() {
	o.mu.Lock()
	o.previous = o.copyOf(o.value)
	current := o.copyOf(o.value)
	o.mu.Unlock()

	o.notify(Notification{Event: EventBeforeChange, Value: current})
}

// ValueHasMutated is the post-write barrier. It publishes the current value
// as EventChange.
func (o *Observable[T]) ValueHasMutated() {
	o.mu.RLock()
	current := o.copyOf(o.value)
	previous := o.previous
	o.mu.RUnlock()

	o.notify(Notification{
		Event:     EventChange,
		Value:     current,
		previous:  previous,
		fromWrite: true,
	})
}

// WithEquals replaces the equality function used to skip no-op writes and
// throttled notifications. A nil fn makes every write a change.
func (o *Observable[T]) WithEquals(fn func(a, b T) bool) *Observable[T] {
	if fn == nil {
		o.SetEqualityComparer(nil)
		return o
	}
	o.SetEqualityComparer(func(a, b any) bool {
		av, _ := a.(T)
		bv, _ := b.(T)
		return fn(av, bv)
	})
	return o
}

// defaultEquals uses == for common comparable types and reflect.DeepEqual
// for everything else. Values of different dynamic types are never equal.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return sameAs(av, any(b))
	case int8:
		return sameAs(av, any(b))
	case int16:
		return sameAs(av, any(b))
	case int32:
		return sameAs(av, any(b))
	case int64:
		return sameAs(av, any(b))
	case uint:
		return sameAs(av, any(b))
	case uint8:
		return sameAs(av, any(b))
	case uint16:
		return sameAs(av, any(b))
	case uint32:
		return sameAs(av, any(b))
	case uint64:
		return sameAs(av, any(b))
	case float32:
		return sameAs(av, any(b))
	case float64:
		return sameAs(av, any(b))
	case string:
		return sameAs(av, any(b))
	case bool:
		return sameAs(av, any(b))
	default:
		return reflect.DeepEqual(a, b)
	}
}

func sameAs[V comparable](a V, b any) bool {
	bv, ok := b.(V)
	return ok && a == bv
}
