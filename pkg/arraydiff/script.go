package arraydiff

import (
	"encoding/json"
	"fmt"
)

// Status classifies an edit script entry.
type Status uint8

const (
	// Retained entries exist in both sequences.
	Retained Status = iota
	// Added entries exist only in the new sequence.
	Added
	// Deleted entries exist only in the old sequence.
	Deleted
)

// String returns the wire name of the status.
func (s Status) String() string {
	switch s {
	case Added:
		return "added"
	case Deleted:
		return "deleted"
	case Retained:
		return "retained"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	switch s {
	case Added, Deleted, Retained:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("arraydiff: invalid status %d", uint8(s))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "added":
		*s = Added
	case "deleted":
		*s = Deleted
	case "retained":
		*s = Retained
	default:
		return fmt.Errorf("arraydiff: unknown status %q", text)
	}
	return nil
}

// NoMove is the Moved value of entries that are not part of a move pair.
const NoMove = -1

// Edit is a single edit script entry.
type Edit[E any] struct {
	Status Status
	// Index is the position in the new sequence for Added and Retained
	// entries, and in the old sequence for Deleted entries.
	Index int
	Value E
	// Moved is the Index of the paired entry when a deleted value reappears
	// as an added value, or NoMove.
	Moved int
}

// IsMove reports whether the entry is half of a move pair.
func (e Edit[E]) IsMove() bool {
	return e.Moved != NoMove
}

type editJSON[E any] struct {
	Status Status `json:"status"`
	Index  int    `json:"index"`
	Value  E      `json:"value"`
	Moved  *int   `json:"moved,omitempty"`
}

// MarshalJSON encodes the entry, omitting moved when it is NoMove.
func (e Edit[E]) MarshalJSON() ([]byte, error) {
	out := editJSON[E]{Status: e.Status, Index: e.Index, Value: e.Value}
	if e.IsMove() {
		moved := e.Moved
		out.Moved = &moved
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an entry produced by MarshalJSON.
func (e *Edit[E]) UnmarshalJSON(data []byte) error {
	var in editJSON[E]
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	e.Status = in.Status
	e.Index = in.Index
	e.Value = in.Value
	e.Moved = NoMove
	if in.Moved != nil {
		e.Moved = *in.Moved
	}
	return nil
}

// Script is an ordered edit script. The full script is the "changes" view;
// Added and Deleted return the filtered views.
type Script[E any] []Edit[E]

// Changes returns the full script.
func (s Script[E]) Changes() Script[E] {
	return s
}

// Added returns the entries with status Added, in script order.
func (s Script[E]) Added() Script[E] {
	return s.filter(Added)
}

// Deleted returns the entries with status Deleted, in script order.
func (s Script[E]) Deleted() Script[E] {
	return s.filter(Deleted)
}

// Retained returns the entries with status Retained, in script order.
func (s Script[E]) Retained() Script[E] {
	return s.filter(Retained)
}

func (s Script[E]) filter(status Status) Script[E] {
	var out Script[E]
	for _, e := range s {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

// Apply replays the added and deleted entries of script against old and
// returns the resulting sequence. old is not modified.
//
// Deletions are applied from the highest old index down, then additions from
// the lowest new index up, so Apply(old, Compare(old, new)) equals new.
func Apply[E any](old []E, script Script[E]) []E {
	out := make([]E, len(old))
	copy(out, old)

	deleted := script.Deleted()
	for i := len(deleted) - 1; i >= 0; i-- {
		idx := deleted[i].Index
		if idx < 0 || idx >= len(out) {
			continue
		}
		out = append(out[:idx], out[idx+1:]...)
	}

	for _, e := range script.Added() {
		idx := e.Index
		if idx >= len(out) {
			out = append(out, e.Value)
			continue
		}
		if idx < 0 {
			idx = 0
		}
		var zero E
		out = append(out, zero)
		copy(out[idx+1:], out[idx:])
		out[idx] = e.Value
	}
	return out
}
