package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/vango-dev/observe/pkg/arraydiff"
	"github.com/vango-dev/observe/pkg/observe"
)

// settleMargin is added to the throttle when waiting for deferred
// notifications after the last step.
const settleMargin = 50 * time.Millisecond

// NewArray creates the array the scenario starts from, with the scenario's
// throttle applied.
func (s *Scenario) NewArray(opts ...observe.Option) (*observe.ObservableArray[any], error) {
	arr := observe.NewObservableArray(s.Initial, opts...)
	if s.Throttle > 0 {
		if err := arr.Extend(observe.Extenders{"throttle": s.Throttle}); err != nil {
			return nil, err
		}
	}
	return arr, nil
}

// Run replays the scenario against arr and writes the transcript to out.
// With a throttle, Run waits for deferred notifications before returning.
func (s *Scenario) Run(ctx context.Context, arr *observe.ObservableArray[any], out io.Writer) error {
	p := &printer{w: out}
	if s.Name != "" {
		p.printf("# %s\n", s.Name)
	}
	p.printf("initial: %s\n", formatValue(arr.Peek()))

	subs := p.attach(arr)
	defer disposeAll(subs)

	if err := replay(ctx, arr, s.Steps, p); err != nil {
		return err
	}
	if s.Throttle > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.Throttle + settleMargin):
		}
	}
	p.printf("final: %s\n", formatValue(arr.Peek()))
	return nil
}

// Run replays steps against arr, writing each step, its result and every
// derived array event to out. It stops at the first failing step or when
// ctx is done.
func Run(ctx context.Context, arr *observe.ObservableArray[any], steps []Step, out io.Writer) error {
	p := &printer{w: out}
	subs := p.attach(arr)
	defer disposeAll(subs)
	return replay(ctx, arr, steps, p)
}

func replay(ctx context.Context, arr *observe.ObservableArray[any], steps []Step, p *printer) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.printf("%d. %s\n", i+1, step)
		result, err := Apply(arr, step.Op, step.Args)
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		if result != nil {
			p.printf("   => %s\n", formatValue(result))
		}
	}
	return nil
}

// printer serializes transcript writes; throttled events arrive on timer
// goroutines.
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

// attach subscribes to every derived array event.
func (p *printer) attach(arr *observe.ObservableArray[any]) []*observe.Subscription {
	var subs []*observe.Subscription
	for _, event := range observe.ArrayEvents() {
		subs = append(subs, arr.Subscribe(func(v any) {
			script, _ := v.(arraydiff.Script[any])
			p.printf("   %s: %s\n", event, formatValue(script))
		}, observe.ForEvent(event)))
	}
	return subs
}

func disposeAll(subs []*observe.Subscription) {
	for _, sub := range subs {
		sub.Dispose()
	}
}

// formatValue renders v as JSON, falling back to fmt for values JSON cannot
// encode.
func formatValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
