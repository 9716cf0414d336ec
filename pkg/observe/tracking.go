package observe

import (
	"runtime"
	"sync"
)

// Source is a subscribable whose reads can be recorded as a dependency.
// Observables report themselves to the current detection frame on Get.
type Source interface {
	ID() uint64
	Subscribe(cb Callback, opts ...SubscribeOption) *Subscription
}

// detectionFrame is one Begin/End bracket.
// A nil callback suppresses registration for everything run inside it.
type detectionFrame struct {
	callback func(Source)
	seen     map[uint64]struct{}
}

// trackingContext holds the dependency detection stack for a goroutine.
type trackingContext struct {
	frames []*detectionFrame
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// getGoroutineID returns a unique identifier for the current goroutine,
// parsed from the "goroutine <id> " header of the runtime stack.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ { // Skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingContext returns the tracking context for the current goroutine,
// creating it if needed.
func getTrackingContext() *trackingContext {
	gid := getGoroutineID()
	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}
	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// Begin opens a dependency detection frame on the current goroutine.
// Every Source read with Get until the matching End is reported once to
// callback. A nil callback opens a suppression frame: reads inside it are
// not reported to any enclosing frame.
//
// Begin and End must be paired on the same goroutine; use defer.
func Begin(callback func(Source)) {
	ctx := getTrackingContext()
	ctx.frames = append(ctx.frames, &detectionFrame{callback: callback})
}

// End closes the innermost frame opened by Begin.
func End() {
	gid := getGoroutineID()
	v, ok := trackingContexts.Load(gid)
	if !ok {
		return
	}
	ctx := v.(*trackingContext)
	if n := len(ctx.frames); n > 0 {
		ctx.frames[n-1] = nil
		ctx.frames = ctx.frames[:n-1]
	}
	if len(ctx.frames) == 0 {
		trackingContexts.Delete(gid)
	}
}

// Ignore runs fn inside a suppression frame.
func Ignore(fn func()) {
	Begin(nil)
	defer End()
	fn()
}

// Collect runs fn and returns the distinct sources it read, in first-read
// order.
func Collect(fn func()) []Source {
	var deps []Source
	Begin(func(s Source) {
		deps = append(deps, s)
	})
	defer End()
	fn()
	return deps
}

// IsDetecting reports whether reads on the current goroutine are being
// reported to a frame.
func IsDetecting() bool {
	v, ok := trackingContexts.Load(getGoroutineID())
	if !ok {
		return false
	}
	frames := v.(*trackingContext).frames
	return len(frames) > 0 && frames[len(frames)-1].callback != nil
}

// registerDependency reports src to the innermost frame, once per frame.
func registerDependency(src Source) {
	v, ok := trackingContexts.Load(getGoroutineID())
	if !ok {
		return
	}
	frames := v.(*trackingContext).frames
	if len(frames) == 0 {
		return
	}
	top := frames[len(frames)-1]
	if top.callback == nil {
		return
	}
	if top.seen == nil {
		top.seen = make(map[uint64]struct{})
	}
	id := src.ID()
	if _, dup := top.seen[id]; dup {
		return
	}
	top.seen[id] = struct{}{}
	top.callback(src)
}
