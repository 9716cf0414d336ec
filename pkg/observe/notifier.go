package observe

// Notification is a pending notification travelling down the interceptor
// chain of a Subscribable.
type Notification struct {
	Event Event
	Value any

	// previous is the value held before the write that produced this
	// notification; only set when fromWrite is true.
	previous  any
	fromWrite bool
}

// FromWrite reports whether the notification was produced by a write to an
// Observable, as opposed to a direct NotifySubscribers call.
func (n Notification) FromWrite() bool {
	return n.fromWrite
}

// Previous returns the value held before the write that produced the
// notification. It is nil unless FromWrite is true.
func (n Notification) Previous() any {
	return n.previous
}

// Notifier accepts notifications.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// Interceptor wraps the rest of a notification chain.
type Interceptor func(next Notifier) Notifier

// Use pushes an interceptor onto the front of the notification chain.
// Interceptors compose: the most recently added one sees notifications first.
func (s *Subscribable) Use(i Interceptor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.chain
	if next == nil {
		next = NotifierFunc(s.deliver)
	}
	s.chain = i(next)
}

// NotifyInfo describes a notification round about to run.
type NotifyInfo struct {
	SourceID    uint64
	Event       Event
	Subscribers int
}

// NotifyHook is called before each notification round that has at least one
// subscriber. The returned function, if non-nil, is called after the round
// with panicked set when a callback panicked.
type NotifyHook func(info NotifyInfo) (done func(panicked bool))

// ChainHooks combines hooks into one. Hooks start in order and finish in
// reverse order.
func ChainHooks(hooks ...NotifyHook) NotifyHook {
	return func(info NotifyInfo) func(bool) {
		dones := make([]func(bool), 0, len(hooks))
		for _, h := range hooks {
			if h == nil {
				continue
			}
			if done := h(info); done != nil {
				dones = append(dones, done)
			}
		}
		return func(panicked bool) {
			for i := len(dones) - 1; i >= 0; i-- {
				dones[i](panicked)
			}
		}
	}
}
