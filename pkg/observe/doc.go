// Package observe provides the change-notification core for reactive state.
//
// The package has two layers. Subscribable is a multi-event publish/subscribe
// registry: callbacks subscribe to a named Event and NotifySubscribers fans a
// value out to them in subscription order. Observable and ObservableArray are
// value containers built on it.
//
// # Subscribable
//
//	s := observe.NewSubscribable()
//	sub := s.Subscribe(func(v any) { fmt.Println("got", v) })
//	s.NotifySubscribers(42, observe.EventChange)
//	sub.Dispose()
//
// Notification rounds take a snapshot of the subscriber list before calling
// anything, so callbacks may subscribe or dispose freely. A subscription
// disposed during a round is skipped if it has not been reached yet.
//
// # Observable arrays
//
// ObservableArray wraps a slice and exposes the native mutation set (Push,
// Pop, Splice, Sort, ...) behind a write barrier, so each mutation produces
// exactly one change notification. Subscribing to one of the derived array
// events activates change tracking: from then on every change is diffed
// against the previous snapshot and republished as edit scripts.
//
//	items := observe.NewObservableArray([]int{1, 2, 3})
//	items.OnAdded(func(s arraydiff.Script[int]) { fmt.Println(s) })
//	items.Push(4) // added: [{added 3 4}]
//
// Derived events fire in the fixed order changes, deleted, added, and only
// when the corresponding slice of the edit script is non-empty.
//
// # Throttling
//
// Throttle adds a coalescing stage to the notification chain. Calling it
// twice adds two stages. On an Observable the deferred notification carries
// the latest value and is dropped if the value compares equal to the one held
// when the burst started.
//
// # Threading
//
// Callbacks run synchronously on the goroutine that triggered the
// notification. Throttled notifications run on the Scheduler's goroutine.
// Registries are safe for concurrent use, but mutations of a single
// ObservableArray are expected to be serialized by the caller.
package observe
