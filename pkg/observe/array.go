package observe

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/vango-dev/observe/pkg/arraydiff"
)

// ObservableArray is an Observable holding a slice, with write-barrier
// wrapped mutation methods and derived change events.
//
// Change tracking is off until the first subscription to one of the derived
// events (EventArrayChanges, EventArrayDeleted, EventArrayAdded) or the first
// EditScript call. From then on every EventChange recomputes the edit script
// between the previous snapshot and the current slice and republishes it.
// Tracking is never turned off again.
type ObservableArray[E comparable] struct {
	*Observable[[]E]

	// trackMu protects tracking, saved and last.
	trackMu  sync.Mutex
	tracking bool
	// saved is a private copy of the slice as of the last comparison.
	saved []E
	last  arraydiff.Script[E]
}

// NewObservableArray creates an array observable holding a copy of initial.
// A nil initial slice is an empty array.
func NewObservableArray[E comparable](initial []E, opts ...Option) *ObservableArray[E] {
	values := make([]E, len(initial))
	copy(values, initial)

	a := &ObservableArray[E]{
		Observable: NewObservable(values, opts...),
	}
	// Slices are mutated in place, so every write is a change and every
	// read hands out a copy.
	a.SetEqualityComparer(nil)
	a.Observable.snapshot = func(s []E) []E { return slices.Clone(s) }
	a.Observable.source = a
	a.Subscribable.Subscribe(a.onChange)
	return a
}

// ObservableArrayOf creates an array observable from a dynamically typed
// value: nil, a []E, or any slice or array whose elements are all of type E.
// Anything else fails with ErrInvalidArgument.
func ObservableArrayOf[E comparable](v any, opts ...Option) (*ObservableArray[E], error) {
	if v == nil {
		return NewObservableArray[E](nil, opts...), nil
	}
	if items, ok := v.([]E); ok {
		return NewObservableArray(items, opts...), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return NewObservableArray[E](nil, opts...), nil
		}
		return nil, fmt.Errorf("%w: got %T", ErrInvalidArgument, v)
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidArgument, v)
	}

	items := make([]E, rv.Len())
	for i := range items {
		elem, ok := rv.Index(i).Interface().(E)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is %s", ErrInvalidArgument, i, rv.Index(i).Type())
		}
		items[i] = elem
	}
	return NewObservableArray(items, opts...), nil
}

// Subscribe registers cb like Subscribable.Subscribe. Subscribing to a
// derived array event activates change tracking first.
func (a *ObservableArray[E]) Subscribe(cb Callback, opts ...SubscribeOption) *Subscription {
	if resolveEvent(opts).IsArrayEvent() {
		a.trackChanges()
	}
	return a.Observable.Subscribe(cb, opts...)
}

// OnChanges subscribes fn to the full edit script of each change.
func (a *ObservableArray[E]) OnChanges(fn func(arraydiff.Script[E])) *Subscription {
	return a.subscribeScript(EventArrayChanges, fn)
}

// OnAdded subscribes fn to the added entries of each change.
func (a *ObservableArray[E]) OnAdded(fn func(arraydiff.Script[E])) *Subscription {
	return a.subscribeScript(EventArrayAdded, fn)
}

// OnDeleted subscribes fn to the deleted entries of each change.
func (a *ObservableArray[E]) OnDeleted(fn func(arraydiff.Script[E])) *Subscription {
	return a.subscribeScript(EventArrayDeleted, fn)
}

func (a *ObservableArray[E]) subscribeScript(event Event, fn func(arraydiff.Script[E])) *Subscription {
	return a.Subscribe(func(v any) {
		script, _ := v.(arraydiff.Script[E])
		fn(script)
	}, ForEvent(event))
}

// EditScript activates change tracking and returns the most recent edit
// script. The first call on an array that was not tracked yet returns a
// script against an empty baseline, listing every element as added.
//
// Changes made before tracking was activated are folded into that baseline
// script; they are never reported separately.
func (a *ObservableArray[E]) EditScript() arraydiff.Script[E] {
	a.trackChanges()

	a.trackMu.Lock()
	defer a.trackMu.Unlock()
	return a.last
}

// IsTracking reports whether change tracking has been activated.
func (a *ObservableArray[E]) IsTracking() bool {
	a.trackMu.Lock()
	defer a.trackMu.Unlock()
	return a.tracking
}

// trackChanges activates tracking with an initial comparison against an
// empty baseline.
func (a *ObservableArray[E]) trackChanges() {
	a.trackMu.Lock()
	defer a.trackMu.Unlock()

	if a.tracking {
		return
	}
	a.compareLocked()
	a.tracking = true
	debugLog("observe: array change tracking activated", "id", a.ID(), "len", len(a.saved))
}

// compareLocked diffs the saved snapshot against the current slice and keeps
// the copy Peek returned as the next snapshot. trackMu must be held.
func (a *ObservableArray[E]) compareLocked() arraydiff.Script[E] {
	current := a.Peek()
	a.last = arraydiff.Compare(a.saved, current)
	a.saved = current
	return a.last
}

// recompute diffs the current slice against the snapshot if tracking is on.
func (a *ObservableArray[E]) recompute() (arraydiff.Script[E], bool) {
	a.trackMu.Lock()
	defer a.trackMu.Unlock()
	if !a.tracking {
		return nil, false
	}
	return a.compareLocked(), true
}

// onChange republishes each change as derived events while tracking.
func (a *ObservableArray[E]) onChange(any) {
	script, ok := a.recompute()
	if !ok {
		return
	}

	for _, event := range arrayEvents {
		if !a.HasSubscriptionsForEvent(event) {
			continue
		}
		view := scriptView(script, event)
		if len(view) == 0 {
			continue
		}
		a.NotifySubscribers(view, event)
	}
}

func scriptView[E any](script arraydiff.Script[E], event Event) arraydiff.Script[E] {
	switch event {
	case EventArrayAdded:
		return script.Added()
	case EventArrayDeleted:
		return script.Deleted()
	default:
		return script.Changes()
	}
}
