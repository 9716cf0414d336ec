// Package scenario replays scripted operations against an observable array.
//
// A scenario file is YAML:
//
//	name: groceries
//	initial: [milk, eggs]
//	throttle: 50ms
//	steps:
//	  - op: push
//	    args: [bread]
//	  - op: sort
//	  - op: remove
//	    args: [eggs]
//
// Run prints every step, its result and every derived array event it
// produced. The same operation table backs the stream server's mutation
// endpoint through Apply.
package scenario
