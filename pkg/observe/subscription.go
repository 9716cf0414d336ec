package observe

import "sync/atomic"

// Callback receives the payload of a notification.
type Callback func(value any)

// Bind returns a Callback that invokes fn with target as its first argument.
// It is the equivalent of subscribing with a bound target; a method value
// such as obj.OnChange works the same way.
func Bind[T any](target T, fn func(target T, value any)) Callback {
	return func(value any) {
		fn(target, value)
	}
}

// Subscription binds one callback to one event of a Subscribable.
// Dispose removes it from the owner's registry.
type Subscription struct {
	target   *Subscribable
	callback Callback
	event    Event
	disposed atomic.Bool
}

// Dispose marks the subscription disposed and removes it from its owner.
// Calling it more than once is a no-op.
func (s *Subscription) Dispose() {
	if s.disposed.Swap(true) {
		return
	}
	s.target.remove(s)
}

// IsDisposed reports whether Dispose has been called.
func (s *Subscription) IsDisposed() bool {
	return s.disposed.Load()
}

// Event returns the event the subscription listens to.
func (s *Subscription) Event() Event {
	return s.event
}

// Target returns the subscribable the subscription belongs to.
func (s *Subscription) Target() *Subscribable {
	return s.target
}

// SubscribeOption configures a Subscribe call.
type SubscribeOption func(*subscribeOptions)

type subscribeOptions struct {
	event Event
}

// ForEvent subscribes to e instead of EventChange.
func ForEvent(e Event) SubscribeOption {
	return func(o *subscribeOptions) {
		o.event = e
	}
}

// resolveEvent returns the event selected by opts.
func resolveEvent(opts []SubscribeOption) Event {
	var o subscribeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o.event.orDefault()
}
