package observe

import (
	"cmp"
	"fmt"
	"slices"
)

// mutate applies op to the underlying slice inside one write barrier and
// stores the slice op returns. op runs with the value lock held and must not
// call back into the array.
func (a *ObservableArray[E]) mutate(op func(items []E) []E) {
	a.ValueWillMutate()
	a.apply(op)
	a.ValueHasMutated()
}

func (a *ObservableArray[E]) apply(op func(items []E) []E) {
	a.Observable.mu.Lock()
	defer a.Observable.mu.Unlock()
	a.Observable.value = op(a.Observable.value)
}

// Push appends items and returns the new length.
func (a *ObservableArray[E]) Push(items ...E) int {
	var n int
	a.mutate(func(s []E) []E {
		s = append(s, items...)
		n = len(s)
		return s
	})
	return n
}

// Pop removes and returns the last element. ok is false if the array was
// empty; the write barrier fires either way.
func (a *ObservableArray[E]) Pop() (last E, ok bool) {
	a.mutate(func(s []E) []E {
		if len(s) == 0 {
			return s
		}
		last, ok = s[len(s)-1], true
		var zero E
		s[len(s)-1] = zero
		return s[:len(s)-1]
	})
	return last, ok
}

// Shift removes and returns the first element. ok is false if the array was
// empty; the write barrier fires either way.
func (a *ObservableArray[E]) Shift() (first E, ok bool) {
	a.mutate(func(s []E) []E {
		if len(s) == 0 {
			return s
		}
		first, ok = s[0], true
		return slices.Delete(s, 0, 1)
	})
	return first, ok
}

// Unshift inserts items at the front and returns the new length.
func (a *ObservableArray[E]) Unshift(items ...E) int {
	var n int
	a.mutate(func(s []E) []E {
		s = slices.Insert(s, 0, items...)
		n = len(s)
		return s
	})
	return n
}

// Reverse reverses the array in place and returns a copy of the result.
func (a *ObservableArray[E]) Reverse() []E {
	var out []E
	a.mutate(func(s []E) []E {
		slices.Reverse(s)
		out = slices.Clone(s)
		return s
	})
	return out
}

// Sort stably sorts the array in place with cmp and returns a copy of the
// result. A nil cmp orders elements by their fmt %v text.
func (a *ObservableArray[E]) Sort(cmpFn func(x, y E) int) []E {
	if cmpFn == nil {
		cmpFn = compareText[E]
	}
	var out []E
	a.mutate(func(s []E) []E {
		slices.SortStableFunc(s, cmpFn)
		out = slices.Clone(s)
		return s
	})
	return out
}

func compareText[E any](x, y E) int {
	return cmp.Compare(fmt.Sprint(x), fmt.Sprint(y))
}

// Splice removes deleteCount elements starting at start, inserts items in
// their place and returns the removed elements. A negative start counts from
// the end; start and deleteCount are clamped to the array bounds.
func (a *ObservableArray[E]) Splice(start, deleteCount int, items ...E) []E {
	var removed []E
	a.mutate(func(s []E) []E {
		from, to := spliceBounds(len(s), start, deleteCount)
		removed = slices.Clone(s[from:to])
		return slices.Replace(s, from, to, items...)
	})
	return removed
}

func spliceBounds(n, start, deleteCount int) (from, to int) {
	from = relativeIndex(n, start)
	if deleteCount < 0 {
		deleteCount = 0
	}
	if deleteCount > n-from {
		return from, n
	}
	return from, from + deleteCount
}

// relativeIndex resolves a possibly negative index against length n and
// clamps it to [0, n].
func relativeIndex(n, i int) int {
	if i < 0 {
		i += n
		if i < 0 {
			return 0
		}
	}
	if i > n {
		return n
	}
	return i
}

// Slice returns a copy of the elements in [start, end). Negative indexes
// count from the end; both are clamped to the array bounds. Slice is a
// tracked read and does not pass through the write barrier.
func (a *ObservableArray[E]) Slice(start, end int) []E {
	items := a.Get()
	from := relativeIndex(len(items), start)
	to := relativeIndex(len(items), end)
	if to <= from {
		return []E{}
	}
	return items[from:to:to]
}

// Len returns the number of elements. It is a tracked read.
func (a *ObservableArray[E]) Len() int {
	a.Observable.mu.RLock()
	n := len(a.Observable.value)
	a.Observable.mu.RUnlock()

	registerDependency(a)
	return n
}

// Values returns a copy of the elements. It is a tracked read.
func (a *ObservableArray[E]) Values() []E {
	return a.Get()
}

// IndexOf returns the index of the first element equal to item, or -1.
// It is a tracked read.
func (a *ObservableArray[E]) IndexOf(item E) int {
	return slices.Index(a.Get(), item)
}

// Remove removes every element equal to item and returns them.
func (a *ObservableArray[E]) Remove(item E) []E {
	return a.RemoveFunc(equalTo(item))
}

// RemoveFunc removes every element for which pred returns true and returns
// them in their original order. One write barrier wraps the whole pass, and
// only fires if something matched. pred is called with the value lock held
// and must not call back into the array.
func (a *ObservableArray[E]) RemoveFunc(pred func(E) bool) []E {
	if !slices.ContainsFunc(a.Peek(), pred) {
		return nil
	}
	var removed []E
	a.mutate(func(s []E) []E {
		return slices.DeleteFunc(s, func(v E) bool {
			if !pred(v) {
				return false
			}
			removed = append(removed, v)
			return true
		})
	})
	return removed
}

// RemoveAll empties the array and returns its previous contents. An array
// that is already empty is left alone and no notification fires.
func (a *ObservableArray[E]) RemoveAll() []E {
	all := a.Peek()
	if len(all) == 0 {
		return nil
	}
	a.mutate(func(s []E) []E {
		clear(s)
		return s[:0]
	})
	return all
}

// RemoveValues removes every element contained in values and returns them.
// A nil values removes nothing.
func (a *ObservableArray[E]) RemoveValues(values []E) []E {
	if values == nil {
		return nil
	}
	return a.RemoveFunc(memberOf(values))
}

// Destroy marks every element equal to item as destroyed.
func (a *ObservableArray[E]) Destroy(item E) {
	a.DestroyFunc(equalTo(item))
}

// DestroyFunc marks every element for which pred returns true as destroyed.
// Only elements implementing Destroyable are marked. Unlike RemoveFunc, the
// write barrier fires even when nothing matches.
func (a *ObservableArray[E]) DestroyFunc(pred func(E) bool) {
	items := a.Peek()
	a.ValueWillMutate()
	for i := len(items) - 1; i >= 0; i-- {
		if !pred(items[i]) {
			continue
		}
		if d, ok := any(items[i]).(Destroyable); ok {
			d.MarkDestroyed()
		}
	}
	a.ValueHasMutated()
}

// DestroyAll marks every element as destroyed.
func (a *ObservableArray[E]) DestroyAll() {
	a.DestroyFunc(func(E) bool { return true })
}

// DestroyValues marks every element contained in values as destroyed. A nil
// values does nothing.
func (a *ObservableArray[E]) DestroyValues(values []E) {
	if values == nil {
		return
	}
	a.DestroyFunc(memberOf(values))
}

// Replace overwrites the first element equal to oldItem with newItem. Nothing
// happens if oldItem is not present.
func (a *ObservableArray[E]) Replace(oldItem, newItem E) {
	index := a.IndexOf(oldItem)
	if index < 0 {
		return
	}
	a.mutate(func(s []E) []E {
		if index < len(s) {
			s[index] = newItem
		}
		return s
	})
}

func equalTo[E comparable](item E) func(E) bool {
	return func(v E) bool {
		return v == item
	}
}

func memberOf[E comparable](values []E) func(E) bool {
	set := make(map[E]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return func(v E) bool {
		_, ok := set[v]
		return ok
	}
}
