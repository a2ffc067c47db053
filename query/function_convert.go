package query

import (
	"fmt"
	"strings"
)

// Type Conversion Functions

// CastFunc converts a value to "string", "number" or "boolean"
type CastFunc struct{}

func (f *CastFunc) Name() string  { return "CAST" }
func (f *CastFunc) MinArity() int { return 2 }
func (f *CastFunc) MaxArity() int { return 2 }
func (f *CastFunc) Evaluate(args []interface{}) (interface{}, error) {
	value := args[0]
	if value == nil {
		return nil, nil
	}

	switch typeName := strings.ToLower(toString(args[1])); typeName {
	case "string", "text", "varchar":
		return toString(value), nil
	case "number", "float", "double", "int", "integer":
		return numberArg("CAST", value)
	case "boolean", "bool":
		return truthy(value), nil
	default:
		return nil, fmt.Errorf("CAST: unknown type: %s", typeName)
	}
}

// ToStringFunc converts a value to a string
type ToStringFunc struct{}

func (f *ToStringFunc) Name() string  { return "TO_STRING" }
func (f *ToStringFunc) MinArity() int { return 1 }
func (f *ToStringFunc) MaxArity() int { return 1 }
func (f *ToStringFunc) Evaluate(args []interface{}) (interface{}, error) {
	if args[0] == nil {
		return nil, nil
	}
	return toString(args[0]), nil
}

// ToNumberFunc converts a value to a number
type ToNumberFunc struct{}

func (f *ToNumberFunc) Name() string  { return "TO_NUMBER" }
func (f *ToNumberFunc) MinArity() int { return 1 }
func (f *ToNumberFunc) MaxArity() int { return 1 }
func (f *ToNumberFunc) Evaluate(args []interface{}) (interface{}, error) {
	if args[0] == nil {
		return nil, nil
	}
	return numberArg("TO_NUMBER", args[0])
}
