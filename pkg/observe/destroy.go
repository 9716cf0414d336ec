package observe

import "sync/atomic"

// Destroyable is implemented by array elements that support soft deletion
// through Destroy and DestroyAll.
type Destroyable interface {
	MarkDestroyed()
	IsDestroyed() bool
}

// SoftDelete is an embeddable Destroyable. Embed it in a struct and store
// pointers to that struct in the array.
//
//	type Todo struct {
//	    observe.SoftDelete
//	    Title string
//	}
type SoftDelete struct {
	destroyed atomic.Bool
}

// MarkDestroyed sets the soft-delete marker.
func (d *SoftDelete) MarkDestroyed() {
	d.destroyed.Store(true)
}

// IsDestroyed reports whether the marker is set.
func (d *SoftDelete) IsDestroyed() bool {
	return d.destroyed.Load()
}

// Live returns the elements of items that are not marked destroyed.
func Live[E any](items []E) []E {
	out := make([]E, 0, len(items))
	for _, item := range items {
		if d, ok := any(item).(Destroyable); ok && d.IsDestroyed() {
			continue
		}
		out = append(out, item)
	}
	return out
}
