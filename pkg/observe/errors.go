package observe

import "errors"

// ErrInvalidArgument is returned when an observable array is created from a
// value that is neither array-like nor nil.
var ErrInvalidArgument = errors.New("observe: argument must be an array-like, null, or absent")

// ErrUnknownExtender is returned by Extend for names that were never
// registered with RegisterExtender.
var ErrUnknownExtender = errors.New("observe: unknown extender")

// ErrInvalidExtenderOption is returned when an extender cannot interpret the
// option value it was given.
var ErrInvalidExtenderOption = errors.New("observe: invalid extender option")
