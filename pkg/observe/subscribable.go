package observe

import (
	"slices"
	"sync"
)

// Subscribable is a registry of callbacks keyed by event name.
//
// Subscribers of an event are notified in subscription order. Duplicate
// callbacks are allowed and each fires independently.
type Subscribable struct {
	id uint64

	// mu protects subscriptions, chain and equal. It is never held while a
	// callback runs.
	mu sync.Mutex

	subscriptions map[Event][]*Subscription

	// chain is the head of the interceptor chain, or nil to deliver directly.
	chain Notifier

	// equal is the equality comparer used by IsDifferent. nil means every
	// pair of values is different.
	equal func(a, b any) bool

	// holder is set for value-holding subscribables (Observable); it selects
	// the value-holding throttle mode.
	holder valueHolder

	scheduler Scheduler
	hook      NotifyHook
}

// valueHolder is implemented by subscribables that hold a current value.
type valueHolder interface {
	peekAny() any
}

// NewSubscribable creates an empty Subscribable.
func NewSubscribable(opts ...Option) *Subscribable {
	s := &Subscribable{}
	s.init(opts)
	return s
}

func (s *Subscribable) init(opts []Option) {
	o := applyOptions(opts)
	s.id = nextID()
	s.subscriptions = make(map[Event][]*Subscription)
	s.scheduler = o.scheduler
	s.hook = o.hook
}

// ID returns the unique identifier of the subscribable.
func (s *Subscribable) ID() uint64 {
	return s.id
}

// Subscribe registers cb for EventChange, or for the event selected with
// ForEvent, and returns the new Subscription.
func (s *Subscribable) Subscribe(cb Callback, opts ...SubscribeOption) *Subscription {
	event := resolveEvent(opts)
	sub := &Subscription{
		target:   s,
		callback: cb,
		event:    event,
	}

	s.mu.Lock()
	s.subscriptions[event] = append(s.subscriptions[event], sub)
	s.mu.Unlock()

	return sub
}

// remove drops sub from its event's sequence. Removing a subscription that
// is no longer registered is a no-op.
func (s *Subscribable) remove(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.subscriptions[sub.event]
	i := slices.Index(subs, sub)
	if i < 0 {
		return
	}
	subs = slices.Delete(subs, i, i+1)
	if len(subs) == 0 {
		delete(s.subscriptions, sub.event)
		return
	}
	s.subscriptions[sub.event] = subs
}

// NotifySubscribers sends value to the subscribers of event. The empty event
// means EventChange. The notification passes through any interceptors
// installed by Throttle or Use before it is delivered.
func (s *Subscribable) NotifySubscribers(value any, event Event) {
	s.notify(Notification{Event: event.orDefault(), Value: value})
}

// notify hands n to the head of the interceptor chain.
func (s *Subscribable) notify(n Notification) {
	s.mu.Lock()
	head := s.chain
	s.mu.Unlock()

	if head == nil {
		s.deliver(n)
		return
	}
	head.Notify(n)
}

// deliver runs one notification round for n.
//
// The subscriber list is copied before any callback runs: subscriptions added
// during the round are not called until the next one, and subscriptions
// disposed during the round are skipped when reached. Callbacks run inside a
// suppression frame so that reads they make are not recorded as dependencies
// of whatever triggered the notification. A panicking callback propagates to
// the caller after the frame is closed.
func (s *Subscribable) deliver(n Notification) {
	s.mu.Lock()
	subs := s.subscriptions[n.Event]
	if len(subs) == 0 {
		s.mu.Unlock()
		return
	}
	snapshot := make([]*Subscription, len(subs))
	copy(snapshot, subs)
	hook := s.hook
	s.mu.Unlock()

	var done func(panicked bool)
	if hook != nil {
		done = hook(NotifyInfo{
			SourceID:    s.id,
			Event:       n.Event,
			Subscribers: len(snapshot),
		})
	}

	completed := false
	Begin(nil)
	defer func() {
		End()
		if done != nil {
			done(!completed)
		}
	}()

	for _, sub := range snapshot {
		if sub.IsDisposed() {
			continue
		}
		sub.callback(n.Value)
	}
	completed = true
}

// HasSubscriptionsForEvent reports whether event has at least one
// subscription.
func (s *Subscribable) HasSubscriptionsForEvent(event Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscriptions[event.orDefault()]) > 0
}

// SubscriptionsCount returns the number of subscriptions across all events.
func (s *Subscribable) SubscriptionsCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, subs := range s.subscriptions {
		total += len(subs)
	}
	return total
}

// SetEqualityComparer installs the comparer used by IsDifferent. A nil
// comparer makes every pair of values different.
func (s *Subscribable) SetEqualityComparer(fn func(a, b any) bool) {
	s.mu.Lock()
	s.equal = fn
	s.mu.Unlock()
}

// IsDifferent reports whether oldValue and newValue should be treated as a
// change. Without an equality comparer every pair is different.
func (s *Subscribable) IsDifferent(oldValue, newValue any) bool {
	s.mu.Lock()
	equal := s.equal
	s.mu.Unlock()
	return equal == nil || !equal(oldValue, newValue)
}

// SetNotifyHook replaces the hook called around each notification round.
func (s *Subscribable) SetNotifyHook(h NotifyHook) {
	s.mu.Lock()
	s.hook = h
	s.mu.Unlock()
}

// IsSubscribable reports whether v exposes the subscribe/notify surface.
func IsSubscribable(v any) bool {
	if v == nil {
		return false
	}
	_, ok := v.(interface {
		Subscribe(cb Callback, opts ...SubscribeOption) *Subscription
		NotifySubscribers(value any, event Event)
	})
	return ok
}
