package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NullMarker is the projected value of a missing or null column.
const NullMarker = "NULL"

// isNullish reports whether v is Null or the projected NullMarker.
func isNullish(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == NullMarker
}

// toNumber converts a value to float64 if possible. Strings holding a
// finite decimal number coerce; hex forms, NaN, Inf and booleans do not.
func toNumber(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case string:
		s := strings.TrimSpace(val)
		if s == "" || strings.ContainsAny(s, "xX") {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// isNumeric reports whether v is a number value (not a numeric string).
func isNumeric(v interface{}) bool {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// toString renders a value the way it is compared and joined on. Null
// renders as the empty string.
func toString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// truthy reports whether a predicate value selects a row.
func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != "" && val != NullMarker && !strings.EqualFold(val, "false")
	default:
		if n, ok := toNumber(val); ok {
			return n != 0
		}
		return true
	}
}

// compareValues orders two non-null values: numerically when both coerce to
// numbers, otherwise as case-folded strings. It reports false when either
// side is Null.
func compareValues(a, b interface{}) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}

	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1, true
		case an > bn:
			return 1, true
		}
		return 0, true
	}

	return strings.Compare(strings.ToLower(toString(a)), strings.ToLower(toString(b))), true
}

// compare applies a comparison operator. Null equals only Null; ordering
// against Null is false.
func compare(left interface{}, operator TokenType, right interface{}) bool {
	if left == nil || right == nil {
		switch operator {
		case TokenEqual:
			return left == nil && right == nil
		case TokenNotEqual:
			return (left == nil) != (right == nil)
		}
		return false
	}

	switch operator {
	case TokenContains:
		return strings.Contains(toString(left), toString(right))
	case TokenLike:
		return matchLike(toString(left), toString(right))
	}

	c, _ := compareValues(left, right)
	switch operator {
	case TokenEqual:
		return c == 0
	case TokenNotEqual:
		return c != 0
	case TokenLess:
		return c < 0
	case TokenGreater:
		return c > 0
	case TokenLessEqual:
		return c <= 0
	case TokenGreaterEqual:
		return c >= 0
	}
	return false
}

// matchLike matches s against a LIKE pattern, case-insensitively. "%"
// matches any run of characters and "_" exactly one.
func matchLike(s, pattern string) bool {
	str := []rune(strings.ToLower(s))
	pat := []rune(strings.ToLower(pattern))

	// si/pi track the current position; star/mark remember the last "%" and
	// the string position it was tried at.
	si, pi := 0, 0
	star, mark := -1, 0
	for si < len(str) {
		switch {
		case pi < len(pat) && pat[pi] == '%':
			star = pi
			mark = si
			pi++
		case pi < len(pat) && (pat[pi] == '_' || pat[pi] == str[si]):
			si++
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}
	for pi < len(pat) && pat[pi] == '%' {
		pi++
	}
	return pi == len(pat)
}

// copyRow returns a shallow copy of row.
func copyRow(row map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
