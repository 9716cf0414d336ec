package observe

// Event names a notification channel on a Subscribable.
type Event string

const (
	// EventChange is the default event. Observables publish it after every
	// write with the new value as payload.
	EventChange Event = "change"

	// EventBeforeChange is published by ValueWillMutate with the value held
	// before the write.
	EventBeforeChange Event = "beforeChange"
)

// Derived array events. Their payload is an arraydiff.Script of the
// array's element type.
const (
	EventArrayChanges Event = "changes"
	EventArrayDeleted Event = "deleted"
	EventArrayAdded   Event = "added"
)

// arrayEvents is the publication order of the derived array events.
var arrayEvents = [...]Event{EventArrayChanges, EventArrayDeleted, EventArrayAdded}

// ArrayEvents returns the derived array events in publication order.
func ArrayEvents() []Event {
	out := make([]Event, len(arrayEvents))
	copy(out, arrayEvents[:])
	return out
}

// IsArrayEvent reports whether e is one of the derived array events.
func (e Event) IsArrayEvent() bool {
	for _, ae := range arrayEvents {
		if e == ae {
			return true
		}
	}
	return false
}

// orDefault maps the empty event to EventChange.
func (e Event) orDefault() Event {
	if e == "" {
		return EventChange
	}
	return e
}
