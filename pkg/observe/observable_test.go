package observe

import (
	"testing"
)

func TestObservableBasic(t *testing.T) {
	count := NewObservable(0)

	if count.Get() != 0 {
		t.Errorf("expected initial value 0, got %d", count.Get())
	}

	count.Set(5)
	if count.Get() != 5 {
		t.Errorf("expected value 5, got %d", count.Get())
	}

	count.Update(func(n int) int { return n * 2 })
	if count.Peek() != 10 {
		t.Errorf("expected value 10, got %d", count.Peek())
	}
}

func TestObservableNotifiesOnlyOnChange(t *testing.T) {
	count := NewObservable(0)
	rec := &recorder{}
	count.Subscribe(rec.callback)

	count.Set(1)
	count.Set(1)
	count.Set(2)

	if rec.count() != 2 {
		t.Fatalf("expected 2 notifications, got %d", rec.count())
	}
	if rec.values[0] != 1 || rec.values[1] != 2 {
		t.Errorf("expected payloads [1 2], got %v", rec.values)
	}
}

func TestObservableBeforeChange(t *testing.T) {
	name := NewObservable("a")
	before := &recorder{}
	name.Subscribe(before.callback, ForEvent(EventBeforeChange))

	name.Set("b")

	if before.count() != 1 || before.last() != "a" {
		t.Errorf("expected beforeChange with old value a, got %v", before.values)
	}
}

func TestObservableWithEquals(t *testing.T) {
	type point struct{ X, Y int }
	p := NewObservable(point{1, 2}).WithEquals(func(a, b point) bool {
		return a.X == b.X
	})
	rec := &recorder{}
	p.Subscribe(rec.callback)

	p.Set(point{1, 99})
	if rec.count() != 0 {
		t.Errorf("custom equality should suppress write, got %d notifications", rec.count())
	}

	p.Set(point{2, 0})
	if rec.count() != 1 {
		t.Errorf("expected 1 notification, got %d", rec.count())
	}

	p.WithEquals(nil)
	p.Set(point{2, 0})
	if rec.count() != 2 {
		t.Errorf("nil equality should treat every write as a change, got %d", rec.count())
	}
}

func TestObservableAnyMixedTypes(t *testing.T) {
	v := NewObservable[any](1)
	rec := &recorder{}
	v.Subscribe(rec.callback)

	v.Set("1")
	v.Set("1")
	v.Set(nil)

	if rec.count() != 2 {
		t.Errorf("expected 2 notifications, got %d", rec.count())
	}
}

func TestObservableGetRegistersDependency(t *testing.T) {
	a := NewObservable(1)
	b := NewObservable(2)

	deps := Collect(func() {
		_ = a.Get()
		_ = a.Get()
		_ = b.Peek()
	})

	if len(deps) != 1 {
		t.Fatalf("expected 1 dependency, got %d", len(deps))
	}
	if deps[0].ID() != a.ID() {
		t.Errorf("expected dependency on a")
	}
}

func TestObservableManualBarrier(t *testing.T) {
	items := NewObservable([]int{1})
	rec := &recorder{}
	items.Subscribe(rec.callback)

	items.ValueWillMutate()
	items.ValueHasMutated()

	if rec.count() != 1 {
		t.Errorf("ValueHasMutated should notify, got %d", rec.count())
	}
}
