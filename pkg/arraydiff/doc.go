// Package arraydiff computes edit scripts between two ordered sequences.
//
// An edit script is the minimal sequence of added, deleted and retained
// entries that transforms an old sequence into a new one. Retained entries
// preserve their relative order, and elements are matched with ==.
//
//	script := arraydiff.Compare([]int{1, 2, 3}, []int{1, 3, 4})
//	// retained 1, deleted 2, retained 3, added 4
//
// Every entry carries the position it refers to: the index in the new
// sequence for added and retained entries, the index in the old sequence for
// deleted entries. When the same value is both deleted and added, the pair is
// linked through Moved so that consumers can render a move instead of a
// remove/insert pair.
package arraydiff
