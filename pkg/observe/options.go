package observe

// Option configures a Subscribable, Observable or ObservableArray.
type Option func(*options)

type options struct {
	scheduler Scheduler
	hook      NotifyHook
}

// WithScheduler sets the scheduler used by Throttle.
// The default runs deferred notifications with time.AfterFunc.
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// WithNotifyHook installs a hook that runs around each notification round.
func WithNotifyHook(h NotifyHook) Option {
	return func(o *options) {
		o.hook = h
	}
}

func applyOptions(opts []Option) options {
	o := options{scheduler: DefaultScheduler}
	for _, opt := range opts {
		opt(&o)
	}
	if o.scheduler == nil {
		o.scheduler = DefaultScheduler
	}
	return o
}
