package errors

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryScenario Category = "scenario"
	CategoryStream   Category = "stream"
	CategorySnapshot Category = "snapshot"
	CategoryCLI      Category = "cli"
)

// contextSize is the number of source lines shown around a location.
const contextSize = 5

// Location represents a source location.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// ObserveError is a structured error with source location and suggestions.
type ObserveError struct {
	// Code is a unique error identifier (e.g., "O001").
	Code string

	// Category is the error type (config, scenario, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the source location where the error occurred.
	Location *Location

	// Context contains source lines around Location, starting at
	// ContextStart.
	Context      []string
	ContextStart int

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example shows the correct form.
	Example string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *ObserveError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *ObserveError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a source location and reads the surrounding lines from
// file.
func (e *ObserveError) WithLocation(file string, line, column int) *ObserveError {
	e.Location = &Location{File: file, Line: line, Column: column}
	f, err := os.Open(file)
	if err != nil {
		return e
	}
	defer f.Close()
	e.Context, e.ContextStart = readContextLines(f, line, contextSize)
	return e
}

// WithSource adds a source location whose lines come from src, for files
// that are already in memory.
func (e *ObserveError) WithSource(file string, src []byte, line, column int) *ObserveError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context, e.ContextStart = readContextLines(bytes.NewReader(src), line, contextSize)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *ObserveError) WithSuggestion(s string) *ObserveError {
	e.Suggestion = s
	return e
}

// WithExample adds an example of the correct form.
func (e *ObserveError) WithExample(ex string) *ObserveError {
	e.Example = ex
	return e
}

// WithDetail replaces the detailed explanation.
func (e *ObserveError) WithDetail(d string) *ObserveError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *ObserveError) Wrap(err error) *ObserveError {
	e.Wrapped = err
	return e
}

// readContextLines returns up to size lines centered on targetLine, and the
// number of the first returned line.
func readContextLines(r io.Reader, targetLine, size int) ([]string, int) {
	if targetLine <= 0 {
		return nil, 0
	}
	start := targetLine - size/2
	if start < 1 {
		start = 1
	}
	end := targetLine + size/2

	var lines []string
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum > end {
			break
		}
		if lineNum >= start {
			lines = append(lines, scanner.Text())
		}
	}
	if len(lines) == 0 {
		return nil, 0
	}
	return lines, start
}

// New creates an ObserveError from a registered error code.
func New(code string) *ObserveError {
	template, ok := GetTemplate(code)
	if !ok {
		return &ObserveError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &ObserveError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates an ObserveError with a formatted message and no code.
func Newf(category Category, format string, args ...any) *ObserveError {
	return &ObserveError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in an ObserveError with code, unless it already is
// one.
func FromError(err error, code string) *ObserveError {
	if err == nil {
		return nil
	}
	if oe, ok := err.(*ObserveError); ok {
		return oe
	}
	return New(code).Wrap(err)
}
