package query

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// numericFunc is a built-in whose arguments are all coerced to float64
// before fn runs. A NaN result is reported as a domain error.
type numericFunc struct {
	name     string
	min, max int
	fn       func(x []float64) (float64, error)
}

func (f *numericFunc) Name() string  { return f.name }
func (f *numericFunc) MinArity() int { return f.min }
func (f *numericFunc) MaxArity() int { return f.max }
func (f *numericFunc) Evaluate(args []interface{}) (interface{}, error) {
	nums := make([]float64, len(args))
	for i, arg := range args {
		n, err := numberArg(f.name, arg)
		if err != nil {
			return nil, err
		}
		nums[i] = n
	}
	result, err := f.fn(nums)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.name, err)
	}
	if math.IsNaN(result) {
		return nil, fmt.Errorf("%s: argument %v out of domain", f.name, nums)
	}
	return result, nil
}

var (
	errDivisionByZero = errors.New("division by zero")
	errNegativeSqrt   = errors.New("negative number")
)

// unary lifts a one-argument math function into a numericFunc body
func unary(fn func(float64) float64) func([]float64) (float64, error) {
	return func(x []float64) (float64, error) { return fn(x[0]), nil }
}

func binary(fn func(a, b float64) float64) func([]float64) (float64, error) {
	return func(x []float64) (float64, error) { return fn(x[0], x[1]), nil }
}

func roundTo(x []float64) (float64, error) {
	if len(x) == 1 {
		return math.Round(x[0]), nil
	}
	multiplier := math.Pow(10, math.Trunc(x[1]))
	return math.Round(x[0]*multiplier) / multiplier, nil
}

func mod(x []float64) (float64, error) {
	if x[1] == 0 {
		return 0, errDivisionByZero
	}
	return math.Mod(x[0], x[1]), nil
}

func sqrt(x []float64) (float64, error) {
	if x[0] < 0 {
		return 0, errNegativeSqrt
	}
	return math.Sqrt(x[0]), nil
}

func sign(v float64) float64 {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

var mathFuncs = []Function{
	&numericFunc{name: "ABS", min: 1, max: 1, fn: unary(math.Abs)},
	&numericFunc{name: "ROUND", min: 1, max: 2, fn: roundTo},
	&numericFunc{name: "FLOOR", min: 1, max: 1, fn: unary(math.Floor)},
	&numericFunc{name: "CEIL", min: 1, max: 1, fn: unary(math.Ceil)},
	&numericFunc{name: "TRUNC", min: 1, max: 1, fn: unary(math.Trunc)},
	&numericFunc{name: "SIGN", min: 1, max: 1, fn: unary(sign)},
	&numericFunc{name: "SQRT", min: 1, max: 1, fn: sqrt},
	&numericFunc{name: "CBRT", min: 1, max: 1, fn: unary(math.Cbrt)},
	&numericFunc{name: "EXP", min: 1, max: 1, fn: unary(math.Exp)},
	&numericFunc{name: "LOG", min: 1, max: 1, fn: unary(math.Log)},
	&numericFunc{name: "LOG10", min: 1, max: 1, fn: unary(math.Log10)},
	&numericFunc{name: "LOG2", min: 1, max: 1, fn: unary(math.Log2)},
	&numericFunc{name: "SIN", min: 1, max: 1, fn: unary(math.Sin)},
	&numericFunc{name: "COS", min: 1, max: 1, fn: unary(math.Cos)},
	&numericFunc{name: "TAN", min: 1, max: 1, fn: unary(math.Tan)},
	&numericFunc{name: "ASIN", min: 1, max: 1, fn: unary(math.Asin)},
	&numericFunc{name: "ACOS", min: 1, max: 1, fn: unary(math.Acos)},
	&numericFunc{name: "ATAN", min: 1, max: 1, fn: unary(math.Atan)},
	&numericFunc{name: "ATAN2", min: 2, max: 2, fn: binary(math.Atan2)},
	&numericFunc{name: "MOD", min: 2, max: 2, fn: mod},
	&numericFunc{name: "POW", min: 2, max: 2, fn: binary(math.Pow)},
	&numericFunc{name: "RANDOM", min: 0, max: 0, fn: func([]float64) (float64, error) {
		return rand.Float64(), nil
	}},
	&extremeFunc{name: "MIN", sign: -1},
	&extremeFunc{name: "MAX", sign: 1},
}

// extremeFunc returns the non-null argument that compares furthest in the
// direction of sign. Arguments keep their original types.
type extremeFunc struct {
	name string
	sign int
}

func (f *extremeFunc) Name() string  { return f.name }
func (f *extremeFunc) MinArity() int { return 1 }
func (f *extremeFunc) MaxArity() int { return -1 }
func (f *extremeFunc) Evaluate(args []interface{}) (interface{}, error) {
	return extreme(args, f.sign), nil
}

func extreme(values []interface{}, sign int) interface{} {
	var best interface{}
	for _, v := range values {
		if isNullish(v) {
			continue
		}
		if best == nil {
			best = v
			continue
		}
		if c, ok := compareValues(v, best); ok && c*sign > 0 {
			best = v
		}
	}
	return best
}
