package query

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

// Function represents a scalar function that can be evaluated
type Function interface {
	// Name returns the function name (case-insensitive)
	Name() string
	// MinArity returns the minimum number of arguments
	MinArity() int
	// MaxArity returns the maximum number of arguments (-1 for unlimited)
	MaxArity() int
	// Evaluate evaluates the function with the given arguments
	Evaluate(args []interface{}) (interface{}, error)
}

// Registry maps function names to implementations and holds the named
// numeric constants. Function names are case-insensitive; constant names
// are matched exactly.
type Registry struct {
	mu        sync.RWMutex
	functions map[string]Function
	constants map[string]float64
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		functions: make(map[string]Function),
		constants: make(map[string]float64),
	}
}

// DefaultRegistry returns a new registry holding the built-in functions and
// constants. Callers may Register more entries before executing queries.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// String functions
	for _, fn := range stringFuncs {
		r.Register(fn)
	}
	r.Register(&ConcatFunc{})
	r.Register(&LengthFunc{})
	r.Register(&SubstringFunc{})
	r.Register(&ReplaceFunc{})
	r.Register(&StartsWithFunc{})
	r.Register(&EndsWithFunc{})
	r.Register(&RepeatFunc{})

	// Math functions
	for _, fn := range mathFuncs {
		r.Register(fn)
	}

	// Aggregates evaluated over their own arguments outside grouping
	r.Register(&SumFunc{})
	r.Register(&AvgFunc{})
	r.Register(&CountFunc{})

	// Type conversion functions
	r.Register(&CastFunc{})
	r.Register(&ToStringFunc{})
	r.Register(&ToNumberFunc{})

	// Conditional functions
	r.Register(&CoalesceFunc{})
	r.Register(&NullIfFunc{})
	r.Register(&IfFunc{})

	for name, value := range mathConstants {
		r.RegisterConstant(name, value)
	}

	return r
}

// builtinRegistry serves Parse and engines created without a registry. It
// is never modified.
var builtinRegistry = DefaultRegistry()

var mathConstants = map[string]float64{
	"PI":      math.Pi,
	"E":       math.E,
	"LN2":     math.Ln2,
	"LN10":    math.Ln10,
	"LOG2E":   math.Log2E,
	"LOG10E":  math.Log10E,
	"SQRT2":   math.Sqrt2,
	"SQRT1_2": 1 / math.Sqrt2,
}

// Register registers a function, replacing any function of the same name
func (r *Registry) Register(f Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[strings.ToUpper(f.Name())] = f
}

// RegisterConstant registers a named numeric constant
func (r *Registry) RegisterConstant(name string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constants[name] = value
}

// Get retrieves a function by name (case-insensitive)
func (r *Registry) Get(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, exists := r.functions[strings.ToUpper(name)]
	return f, exists
}

// Constant retrieves a named constant
func (r *Registry) Constant(name string) (float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, exists := r.constants[name]
	return v, exists
}

// Names returns the registered function names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// numberArg converts a function argument to a number.
func numberArg(fn string, v interface{}) (float64, error) {
	n, ok := toNumber(v)
	if !ok {
		return 0, fmt.Errorf("%s: cannot convert %v to number", fn, v)
	}
	return n, nil
}

// Aggregate-named functions used as scalars

// SumFunc adds its non-null arguments
type SumFunc struct{}

func (f *SumFunc) Name() string  { return "SUM" }
func (f *SumFunc) MinArity() int { return 1 }
func (f *SumFunc) MaxArity() int { return -1 }
func (f *SumFunc) Evaluate(args []interface{}) (interface{}, error) {
	total := 0.0
	for _, arg := range args {
		if isNullish(arg) {
			continue
		}
		n, err := numberArg("SUM", arg)
		if err != nil {
			return nil, err
		}
		total += n
	}
	return total, nil
}

// AvgFunc averages its non-null arguments
type AvgFunc struct{}

func (f *AvgFunc) Name() string  { return "AVG" }
func (f *AvgFunc) MinArity() int { return 1 }
func (f *AvgFunc) MaxArity() int { return -1 }
func (f *AvgFunc) Evaluate(args []interface{}) (interface{}, error) {
	total, count := 0.0, 0
	for _, arg := range args {
		if isNullish(arg) {
			continue
		}
		n, err := numberArg("AVG", arg)
		if err != nil {
			return nil, err
		}
		total += n
		count++
	}
	if count == 0 {
		return nil, nil
	}
	return total / float64(count), nil
}

// CountFunc counts its non-null arguments
type CountFunc struct{}

func (f *CountFunc) Name() string  { return "COUNT" }
func (f *CountFunc) MinArity() int { return 1 }
func (f *CountFunc) MaxArity() int { return -1 }
func (f *CountFunc) Evaluate(args []interface{}) (interface{}, error) {
	var count int64
	for _, arg := range args {
		if !isNullish(arg) {
			count++
		}
	}
	return count, nil
}

// Conditional Functions

// CoalesceFunc returns the first non-null argument
type CoalesceFunc struct{}

func (f *CoalesceFunc) Name() string  { return "COALESCE" }
func (f *CoalesceFunc) MinArity() int { return 1 }
func (f *CoalesceFunc) MaxArity() int { return -1 }
func (f *CoalesceFunc) Evaluate(args []interface{}) (interface{}, error) {
	for _, arg := range args {
		if !isNullish(arg) {
			return arg, nil
		}
	}
	return nil, nil
}

// NullIfFunc returns null if both arguments are equal, otherwise the first
type NullIfFunc struct{}

func (f *NullIfFunc) Name() string  { return "NULLIF" }
func (f *NullIfFunc) MinArity() int { return 2 }
func (f *NullIfFunc) MaxArity() int { return 2 }
func (f *NullIfFunc) Evaluate(args []interface{}) (interface{}, error) {
	if compare(args[0], TokenEqual, args[1]) {
		return nil, nil
	}
	return args[0], nil
}

// IfFunc returns the second argument when the first is true, else the third
type IfFunc struct{}

func (f *IfFunc) Name() string  { return "IF" }
func (f *IfFunc) MinArity() int { return 2 }
func (f *IfFunc) MaxArity() int { return 3 }
func (f *IfFunc) Evaluate(args []interface{}) (interface{}, error) {
	if truthy(args[0]) {
		return args[1], nil
	}
	if len(args) == 3 {
		return args[2], nil
	}
	return nil, nil
}
