package observe

import (
	"sync"
	"time"
)

// Throttle adds a coalescing stage to the notification chain. Each call adds
// another stage, so throttling twice chains two independent delays.
//
// On a value-holding subscribable (Observable, ObservableArray) writes that
// arrive within timeout of the first write of a burst collapse into one
// notification, fired timeout after that first write and carrying the value
// held at fire time. The notification is dropped if that value compares equal
// to the value held before the burst. Direct NotifySubscribers calls are not
// delayed.
//
// On a plain Subscribable only EventChange is delayed: the stage keeps the
// most recent value and delivers it once no EventChange notification has
// arrived for timeout. Other events pass through immediately.
func (s *Subscribable) Throttle(timeout time.Duration) {
	s.mu.Lock()
	holder := s.holder
	sched := s.scheduler
	s.mu.Unlock()

	if holder != nil {
		s.Use(func(next Notifier) Notifier {
			return &valueThrottle{
				owner:     s,
				holder:    holder,
				next:      next,
				timeout:   timeout,
				scheduler: sched,
			}
		})
		return
	}

	s.Use(func(next Notifier) Notifier {
		return &debounceThrottle{
			next:      next,
			timeout:   timeout,
			scheduler: sched,
		}
	})
}

// debounceThrottle coalesces EventChange notifications on a plain
// subscribable until timeout passes without a new one.
type debounceThrottle struct {
	next      Notifier
	timeout   time.Duration
	scheduler Scheduler

	mu      sync.Mutex
	pending Notification
	timer   Timer
	gen     uint64
}

func (t *debounceThrottle) Notify(n Notification) {
	if n.Event != EventChange {
		t.next.Notify(n)
		return
	}

	t.mu.Lock()
	t.pending = n
	prev := t.timer
	t.timer = nil
	t.gen++
	gen := t.gen
	t.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
	timer := t.scheduler.AfterFunc(t.timeout, func() {
		t.fire(gen)
	})

	t.mu.Lock()
	if t.gen == gen {
		t.timer = timer
	}
	t.mu.Unlock()
}

func (t *debounceThrottle) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		// Superseded by a later notification.
		t.mu.Unlock()
		return
	}
	n := t.pending
	t.pending = Notification{}
	t.timer = nil
	t.mu.Unlock()

	debugLog("observe: throttled notification delivered", "event", n.Event)
	t.next.Notify(n)
}

// valueThrottle coalesces writes to a value-holding subscribable into one
// notification per window.
type valueThrottle struct {
	owner     *Subscribable
	holder    valueHolder
	next      Notifier
	timeout   time.Duration
	scheduler Scheduler

	mu      sync.Mutex
	saved   any
	pending bool
}

func (t *valueThrottle) Notify(n Notification) {
	if n.Event != EventChange || !n.fromWrite {
		t.next.Notify(n)
		return
	}

	t.mu.Lock()
	if t.pending {
		t.mu.Unlock()
		return
	}
	t.pending = true
	t.saved = n.previous
	t.mu.Unlock()

	t.scheduler.AfterFunc(t.timeout, t.fire)
}

func (t *valueThrottle) fire() {
	t.mu.Lock()
	saved := t.saved
	t.saved = nil
	t.pending = false
	t.mu.Unlock()

	current := t.holder.peekAny()
	if !t.owner.IsDifferent(saved, current) {
		debugLog("observe: throttled write suppressed, value unchanged", "id", t.owner.id)
		return
	}

	debugLog("observe: throttled write delivered", "id", t.owner.id)
	t.next.Notify(Notification{
		Event:     EventChange,
		Value:     current,
		previous:  saved,
		fromWrite: true,
	})
}
