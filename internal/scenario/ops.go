package scenario

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/vango-dev/observe/pkg/observe"
)

var (
	// ErrUnknownOp is returned by Apply for an operation name it does not
	// know.
	ErrUnknownOp = errors.New("scenario: unknown operation")

	// ErrBadArgs is returned by Apply when the arguments do not fit the
	// operation.
	ErrBadArgs = errors.New("scenario: invalid arguments")
)

// opFunc applies one operation and returns its result.
type opFunc func(arr *observe.ObservableArray[any], args []any) (any, error)

// ops is the table of array operations reachable by name.
var ops = map[string]opFunc{
	"push": func(arr *observe.ObservableArray[any], args []any) (any, error) {
		return arr.Push(args...), nil
	},
	"pop": noArgs(func(arr *observe.ObservableArray[any]) any {
		v, _ := arr.Pop()
		return v
	}),
	"shift": noArgs(func(arr *observe.ObservableArray[any]) any {
		v, _ := arr.Shift()
		return v
	}),
	"unshift": func(arr *observe.ObservableArray[any], args []any) (any, error) {
		return arr.Unshift(args...), nil
	},
	"reverse": noArgs(func(arr *observe.ObservableArray[any]) any {
		arr.Reverse()
		return nil
	}),
	"sort": noArgs(func(arr *observe.ObservableArray[any]) any {
		arr.Sort(nil)
		return nil
	}),
	"splice": func(arr *observe.ObservableArray[any], args []any) (any, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("%w: splice needs a start index", ErrBadArgs)
		}
		start, err := intArg(args[0])
		if err != nil {
			return nil, err
		}
		deleteCount := math.MaxInt
		var items []any
		if len(args) > 1 {
			if deleteCount, err = intArg(args[1]); err != nil {
				return nil, err
			}
			items = args[2:]
		}
		return arr.Splice(start, deleteCount, items...), nil
	},
	"slice": func(arr *observe.ObservableArray[any], args []any) (any, error) {
		start, end := 0, math.MaxInt
		var err error
		if len(args) > 0 {
			if start, err = intArg(args[0]); err != nil {
				return nil, err
			}
		}
		if len(args) > 1 {
			if end, err = intArg(args[1]); err != nil {
				return nil, err
			}
		}
		if len(args) > 2 {
			return nil, fmt.Errorf("%w: slice takes at most 2 arguments", ErrBadArgs)
		}
		return arr.Slice(start, end), nil
	},
	"indexOf": exactlyOne(func(arr *observe.ObservableArray[any], v any) any {
		return arr.IndexOf(v)
	}),
	"remove": exactlyOne(func(arr *observe.ObservableArray[any], v any) any {
		return arr.Remove(v)
	}),
	"removeAll": func(arr *observe.ObservableArray[any], args []any) (any, error) {
		if args == nil {
			return arr.RemoveAll(), nil
		}
		return arr.RemoveValues(args), nil
	},
	"destroy": exactlyOne(func(arr *observe.ObservableArray[any], v any) any {
		arr.Destroy(v)
		return nil
	}),
	"destroyAll": func(arr *observe.ObservableArray[any], args []any) (any, error) {
		if args == nil {
			arr.DestroyAll()
			return nil, nil
		}
		arr.DestroyValues(args)
		return nil, nil
	},
	"replace": func(arr *observe.ObservableArray[any], args []any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: replace takes 2 arguments, got %d", ErrBadArgs, len(args))
		}
		arr.Replace(args[0], args[1])
		return nil, nil
	},
	"set": func(arr *observe.ObservableArray[any], args []any) (any, error) {
		values := make([]any, len(args))
		copy(values, args)
		arr.Set(values)
		return len(values), nil
	},
}

func noArgs(fn func(arr *observe.ObservableArray[any]) any) opFunc {
	return func(arr *observe.ObservableArray[any], args []any) (any, error) {
		if len(args) != 0 {
			return nil, fmt.Errorf("%w: takes no arguments, got %d", ErrBadArgs, len(args))
		}
		return fn(arr), nil
	}
}

func exactlyOne(fn func(arr *observe.ObservableArray[any], v any) any) opFunc {
	return func(arr *observe.ObservableArray[any], args []any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: takes 1 argument, got %d", ErrBadArgs, len(args))
		}
		return fn(arr, args[0]), nil
	}
}

// Ops returns the names of all supported operations in sorted order.
func Ops() []string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply runs the operation named op with args against arr and returns its
// result: the new length for push, unshift and set, the removed element for
// pop and shift, the removed elements for splice, remove and removeAll, and
// nil for the rest.
//
// A nil args for removeAll and destroyAll means every element; a non-nil
// args names the values to remove or destroy.
func Apply(arr *observe.ObservableArray[any], op string, args []any) (any, error) {
	fn, ok := ops[op]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, op)
	}
	if err := CheckScalars(args); err != nil {
		return nil, err
	}
	return fn(arr, args)
}

// CheckScalars rejects values that cannot be compared with ==, such as
// lists and maps, which would panic inside the array's equality checks.
func CheckScalars(args []any) error {
	for i, a := range args {
		switch a.(type) {
		case nil, string, bool, int, int64, uint64, float64:
		default:
			return fmt.Errorf("%w: value %d is a %T; only scalars are supported", ErrBadArgs, i, a)
		}
	}
	return nil
}

// intArg converts a decoded number to an int. JSON numbers arrive as
// float64 and must be integral.
func intArg(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		if n > math.MaxInt {
			return math.MaxInt, nil
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrBadArgs, n)
		}
		switch {
		case n >= math.MaxInt:
			return math.MaxInt, nil
		case n <= math.MinInt:
			return math.MinInt, nil
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: want an integer, got %T", ErrBadArgs, v)
	}
}
