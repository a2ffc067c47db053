package query

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// String Functions. A Null first argument yields Null.

// stringFunc maps one string argument to a string
type stringFunc struct {
	name string
	fn   func(string) string
}

func (f *stringFunc) Name() string  { return f.name }
func (f *stringFunc) MinArity() int { return 1 }
func (f *stringFunc) MaxArity() int { return 1 }
func (f *stringFunc) Evaluate(args []interface{}) (interface{}, error) {
	if args[0] == nil {
		return nil, nil
	}
	return f.fn(toString(args[0])), nil
}

var stringFuncs = []Function{
	&stringFunc{name: "UPPER", fn: strings.ToUpper},
	&stringFunc{name: "LOWER", fn: strings.ToLower},
	&stringFunc{name: "TRIM", fn: strings.TrimSpace},
	&stringFunc{name: "LTRIM", fn: func(s string) string { return strings.TrimLeft(s, " \t\n\r") }},
	&stringFunc{name: "RTRIM", fn: func(s string) string { return strings.TrimRight(s, " \t\n\r") }},
	&stringFunc{name: "REVERSE", fn: reverse},
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// ConcatFunc concatenates its arguments; Null arguments are skipped
type ConcatFunc struct{}

func (f *ConcatFunc) Name() string  { return "CONCAT" }
func (f *ConcatFunc) MinArity() int { return 1 }
func (f *ConcatFunc) MaxArity() int { return -1 }
func (f *ConcatFunc) Evaluate(args []interface{}) (interface{}, error) {
	var builder strings.Builder
	for _, arg := range args {
		builder.WriteString(toString(arg))
	}
	return builder.String(), nil
}

// LengthFunc returns the number of characters in a string
type LengthFunc struct{}

func (f *LengthFunc) Name() string  { return "LENGTH" }
func (f *LengthFunc) MinArity() int { return 1 }
func (f *LengthFunc) MaxArity() int { return 1 }
func (f *LengthFunc) Evaluate(args []interface{}) (interface{}, error) {
	if args[0] == nil {
		return nil, nil
	}
	return int64(utf8.RuneCountInString(toString(args[0]))), nil
}

// SubstringFunc extracts a substring (1-indexed, SQL style)
type SubstringFunc struct{}

func (f *SubstringFunc) Name() string  { return "SUBSTRING" }
func (f *SubstringFunc) MinArity() int { return 2 }
func (f *SubstringFunc) MaxArity() int { return 3 }
func (f *SubstringFunc) Evaluate(args []interface{}) (interface{}, error) {
	if args[0] == nil {
		return nil, nil
	}
	runes := []rune(toString(args[0]))

	start, err := numberArg("SUBSTRING", args[1])
	if err != nil {
		return nil, err
	}
	startIdx := int(start) - 1
	if startIdx < 0 {
		startIdx = 0
	}
	if startIdx >= len(runes) {
		return "", nil
	}

	endIdx := len(runes)
	if len(args) == 3 {
		length, err := numberArg("SUBSTRING", args[2])
		if err != nil {
			return nil, err
		}
		if length < 0 {
			return "", nil
		}
		if n := startIdx + int(length); n < endIdx {
			endIdx = n
		}
	}

	return string(runes[startIdx:endIdx]), nil
}

// ReplaceFunc replaces occurrences of a substring
type ReplaceFunc struct{}

func (f *ReplaceFunc) Name() string  { return "REPLACE" }
func (f *ReplaceFunc) MinArity() int { return 3 }
func (f *ReplaceFunc) MaxArity() int { return 3 }
func (f *ReplaceFunc) Evaluate(args []interface{}) (interface{}, error) {
	if args[0] == nil {
		return nil, nil
	}
	return strings.ReplaceAll(toString(args[0]), toString(args[1]), toString(args[2])), nil
}

// StartsWithFunc checks if a string starts with a prefix
type StartsWithFunc struct{}

func (f *StartsWithFunc) Name() string  { return "STARTS_WITH" }
func (f *StartsWithFunc) MinArity() int { return 2 }
func (f *StartsWithFunc) MaxArity() int { return 2 }
func (f *StartsWithFunc) Evaluate(args []interface{}) (interface{}, error) {
	if args[0] == nil {
		return nil, nil
	}
	return strings.HasPrefix(toString(args[0]), toString(args[1])), nil
}

// EndsWithFunc checks if a string ends with a suffix
type EndsWithFunc struct{}

func (f *EndsWithFunc) Name() string  { return "ENDS_WITH" }
func (f *EndsWithFunc) MinArity() int { return 2 }
func (f *EndsWithFunc) MaxArity() int { return 2 }
func (f *EndsWithFunc) Evaluate(args []interface{}) (interface{}, error) {
	if args[0] == nil {
		return nil, nil
	}
	return strings.HasSuffix(toString(args[0]), toString(args[1])), nil
}

// RepeatFunc repeats a string n times
type RepeatFunc struct{}

func (f *RepeatFunc) Name() string  { return "REPEAT" }
func (f *RepeatFunc) MinArity() int { return 2 }
func (f *RepeatFunc) MaxArity() int { return 2 }
func (f *RepeatFunc) Evaluate(args []interface{}) (interface{}, error) {
	if args[0] == nil {
		return nil, nil
	}
	str := toString(args[0])

	count, err := numberArg("REPEAT", args[1])
	if err != nil {
		return nil, err
	}
	n := int(count)
	if n < 0 {
		return nil, fmt.Errorf("REPEAT: count must be non-negative, got %d", n)
	}

	const maxTotalBytes = 10 * 1024 * 1024
	if len(str) > 0 && n > maxTotalBytes/len(str) {
		return nil, fmt.Errorf("REPEAT: result would be too large")
	}

	return strings.Repeat(str, n), nil
}
