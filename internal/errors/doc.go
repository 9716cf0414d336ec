// Package errors provides structured, actionable error messages for the
// observe command line tool.
//
// Every error carries a code, a category, a short message and optionally a
// source location with the surrounding lines, a hint and an example. The CLI
// prints them with Format, FormatCompact or FormatJSON.
//
// # Error Categories
//
//   - config: problems in observe.json
//   - scenario: problems in scenario YAML files
//   - stream: HTTP and WebSocket service failures
//   - snapshot: snapshot sink failures
//   - cli: command line usage
//
// # Usage
//
//	err := errors.New("O012").
//	    WithSource("todo.yaml", data, 7, 11).
//	    WithSuggestion(`Use one of: push, pop, shift, unshift, ...`)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR O012: Unknown scenario operation
//	//
//	//   todo.yaml:7:11
//	//
//	//        5 │   - op: push
//	//        6 │     args: [4]
//	//   →    7 │   - op: pusj
//	//          │           ^
//	//        8 │     args: [5]
//	//
//	//   Hint: Use one of: push, pop, shift, unshift, ...
package errors
