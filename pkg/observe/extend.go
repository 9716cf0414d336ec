package observe

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Extender applies a named behavior modifier to a subscribable.
type Extender func(target *Subscribable, option any) error

// Extenders maps extender names to their options, as passed to Extend.
type Extenders map[string]any

var (
	extendersMu sync.RWMutex
	extenders   = map[string]Extender{
		"throttle":   throttleExtender,
		"instrument": instrumentExtender,
	}
)

// RegisterExtender makes fn available to Extend under name, replacing any
// previous registration.
func RegisterExtender(name string, fn Extender) {
	extendersMu.Lock()
	defer extendersMu.Unlock()
	extenders[name] = fn
}

// Extend applies each named extender to s. Names are applied in sorted order
// so that the resulting chain does not depend on map iteration. The first
// failing extender stops the run.
func (s *Subscribable) Extend(ext Extenders) error {
	names := make([]string, 0, len(ext))
	for name := range ext {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		extendersMu.RLock()
		fn, ok := extenders[name]
		extendersMu.RUnlock()
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownExtender, name)
		}
		if err := fn(s, ext[name]); err != nil {
			return fmt.Errorf("extend %q: %w", name, err)
		}
	}
	return nil
}

// throttleExtender accepts a time.Duration, a duration string ("250ms"), or
// a number of milliseconds.
func throttleExtender(target *Subscribable, option any) error {
	d, err := durationOption(option)
	if err != nil {
		return err
	}
	target.Throttle(d)
	return nil
}

func instrumentExtender(target *Subscribable, option any) error {
	switch h := option.(type) {
	case NotifyHook:
		target.SetNotifyHook(h)
	case func(NotifyInfo) func(bool):
		target.SetNotifyHook(h)
	default:
		return fmt.Errorf("%w: want NotifyHook, got %T", ErrInvalidExtenderOption, option)
	}
	return nil
}

func durationOption(option any) (time.Duration, error) {
	switch v := option.(type) {
	case time.Duration:
		return v, nil
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case int64:
		return time.Duration(v) * time.Millisecond, nil
	case float64:
		return time.Duration(v * float64(time.Millisecond)), nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidExtenderOption, err)
		}
		return d, nil
	default:
		return 0, fmt.Errorf("%w: want duration, got %T", ErrInvalidExtenderOption, option)
	}
}
