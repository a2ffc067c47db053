package query

import (
	"strings"
)

// Evaluator walks expression trees. Conditions that are resolved by a
// fallback policy instead of failing are recorded on its Diagnostics.
type Evaluator struct {
	registry *Registry
	diag     *Diagnostics
}

// NewEvaluator creates an evaluator. A nil registry means the built-in one;
// a nil diag discards warnings.
func NewEvaluator(registry *Registry, diag *Diagnostics) *Evaluator {
	if registry == nil {
		registry = builtinRegistry
	}
	return &Evaluator{registry: registry, diag: diag}
}

// Evaluate computes expr for row. vars holds pipeline temporaries
// (aggregates, window values) and shadows row columns.
//
// A bare identifier resolves to, in order: a variable, a row column, a named
// constant, and finally its own name as a string.
func (e *Evaluator) Evaluate(expr Expr, row, vars map[string]interface{}) interface{} {
	switch ex := expr.(type) {
	case nil:
		return nil

	case *Literal:
		return ex.Value

	case *ColumnRef:
		return e.resolveIdent(ex.Name, row, vars)

	case *FunctionCall:
		return e.evalCall(ex, row, vars)

	case *WindowCall:
		return vars[ex.String()]

	case *UnaryOp:
		return e.evalUnary(ex, row, vars)

	case *BinaryOp:
		return e.evalBinary(ex, row, vars)

	case *InList:
		v := e.Evaluate(ex.Operand, row, vars)
		if v == nil {
			return false
		}
		for _, item := range ex.Values {
			if compare(v, TokenEqual, e.Evaluate(item, row, vars)) {
				return !ex.Negate
			}
		}
		return ex.Negate

	case *IsNull:
		var v interface{}
		if col, ok := ex.Operand.(*ColumnRef); ok {
			v, _ = e.lookup(col.Name, row, vars)
		} else {
			v = e.Evaluate(ex.Operand, row, vars)
		}
		return isNullish(v) != ex.Negate
	}

	return nil
}

// Value evaluates expr like Evaluate, except that a column reference found
// neither in vars, row nor the constants is Null instead of its own name.
// Projection, grouping and sorting read columns through Value.
func (e *Evaluator) Value(expr Expr, row, vars map[string]interface{}) interface{} {
	col, ok := expr.(*ColumnRef)
	if !ok {
		return e.Evaluate(expr, row, vars)
	}
	if v, ok := e.lookup(col.Name, row, vars); ok {
		return v
	}
	if c, ok := e.registry.Constant(col.Name); ok {
		return c
	}
	return nil
}

// Matches reports whether a predicate selects row.
func (e *Evaluator) Matches(pred Expr, row, vars map[string]interface{}) bool {
	if pred == nil {
		return true
	}
	return truthy(e.Evaluate(pred, row, vars))
}

// lookup resolves name against vars and row without the constant and
// literal fallbacks.
func (e *Evaluator) lookup(name string, row, vars map[string]interface{}) (interface{}, bool) {
	if v, ok := vars[name]; ok {
		return v, true
	}
	return lookupColumn(row, name)
}

func (e *Evaluator) resolveIdent(name string, row, vars map[string]interface{}) interface{} {
	if name == "*" {
		return nil
	}
	if v, ok := e.lookup(name, row, vars); ok {
		return v
	}
	if c, ok := e.registry.Constant(name); ok {
		return c
	}
	// A missing qualified column is Null; only bare words read as text.
	if strings.Contains(name, ".") {
		return nil
	}
	return name
}

func (e *Evaluator) evalCall(call *FunctionCall, row, vars map[string]interface{}) interface{} {
	// Aggregates computed by the grouping stage are published under the
	// canonical text of their call.
	if v, ok := vars[call.String()]; ok {
		return v
	}

	fn, ok := e.registry.Get(call.Name)
	if !ok {
		e.diag.Warn(WarnUnknownFunction, "unknown function %s", strings.ToUpper(call.Name))
		return nil
	}

	args := make([]interface{}, len(call.Args))
	for i, arg := range call.Args {
		if col, ok := arg.(*ColumnRef); ok && col.Name == "*" {
			args[i] = true
			continue
		}
		args[i] = e.Evaluate(arg, row, vars)
	}

	result, err := fn.Evaluate(args)
	if err != nil {
		e.diag.Warn(WarnFunctionError, "%v", err)
		return nil
	}
	return result
}

func (e *Evaluator) evalUnary(op *UnaryOp, row, vars map[string]interface{}) interface{} {
	v := e.Evaluate(op.Operand, row, vars)
	switch op.Op {
	case TokenNot:
		return !truthy(v)
	case TokenMinus:
		if v == nil {
			return nil
		}
		switch n := v.(type) {
		case int64:
			return -n
		case float64:
			return -n
		}
		if n, ok := toNumber(v); ok {
			return -n
		}
		e.diag.Warn(WarnTypeCoercion, "cannot negate %q", toString(v))
		return nil
	}
	return nil
}

func (e *Evaluator) evalBinary(op *BinaryOp, row, vars map[string]interface{}) interface{} {
	switch op.Op {
	case TokenAnd:
		return e.Matches(op.Left, row, vars) && e.Matches(op.Right, row, vars)
	case TokenOr:
		return e.Matches(op.Left, row, vars) || e.Matches(op.Right, row, vars)
	}

	left := e.Evaluate(op.Left, row, vars)
	right := e.Evaluate(op.Right, row, vars)

	switch op.Op {
	case TokenPlus, TokenMinus, TokenStar, TokenSlash:
		return e.arithmetic(op.Op, left, right)
	case TokenLess, TokenGreater, TokenLessEqual, TokenGreaterEqual:
		if mixedOrdering(left, right) {
			e.diag.Warn(WarnTypeCoercion, "compared %q with %q as strings", toString(left), toString(right))
		}
	}
	return compare(left, op.Op, right)
}

// mixedOrdering reports a number ordered against a non-numeric string.
func mixedOrdering(left, right interface{}) bool {
	if left == nil || right == nil {
		return false
	}
	_, lok := toNumber(left)
	_, rok := toNumber(right)
	return (isNumeric(left) && !rok) || (isNumeric(right) && !lok)
}

// arithmetic applies + - * / to numeric coercions of both operands. "+"
// concatenates when either side is not numeric. Division by zero yields
// the dividend.
func (e *Evaluator) arithmetic(op TokenType, left, right interface{}) interface{} {
	if left == nil || right == nil {
		return nil
	}

	ln, lok := toNumber(left)
	rn, rok := toNumber(right)
	if !lok || !rok {
		if op == TokenPlus {
			return toString(left) + toString(right)
		}
		e.diag.Warn(WarnTypeCoercion, "cannot apply %s to %q and %q", op, toString(left), toString(right))
		return nil
	}

	li, lInt := left.(int64)
	ri, rInt := right.(int64)
	ints := lInt && rInt

	switch op {
	case TokenPlus:
		if ints {
			return li + ri
		}
		return ln + rn
	case TokenMinus:
		if ints {
			return li - ri
		}
		return ln - rn
	case TokenStar:
		if ints {
			return li * ri
		}
		return ln * rn
	case TokenSlash:
		if rn == 0 {
			e.diag.Warn(WarnDivisionByZero, "division by zero, dividend %s returned", toString(left))
			if ints {
				return li
			}
			return ln
		}
		return ln / rn
	}
	return nil
}

// lookupColumn finds name in row: the exact key first, then a shorter
// qualified suffix of name, then any key qualified with name as its last
// segment, then a path into nested objects.
func lookupColumn(row map[string]interface{}, name string) (interface{}, bool) {
	if v, ok := row[name]; ok {
		return v, true
	}

	// "json.friends.city" also matches "friends.city" and "city".
	for rest := name; ; {
		i := strings.Index(rest, ".")
		if i < 0 {
			break
		}
		rest = rest[i+1:]
		if v, ok := row[rest]; ok {
			return v, true
		}
	}

	if !strings.Contains(name, ".") {
		suffix := "." + name
		best := ""
		for key := range row {
			if strings.HasSuffix(key, suffix) && (best == "" || key < best) {
				best = key
			}
		}
		if best != "" {
			return row[best], true
		}
		return nil, false
	}

	// "address.city" inside {"address": {"city": ...}}
	segments := strings.Split(name, ".")
	for start := 0; start < len(segments)-1; start++ {
		current, ok := row[segments[start]]
		if !ok {
			continue
		}
		found := true
		for _, seg := range segments[start+1:] {
			obj, isObj := current.(map[string]interface{})
			if !isObj {
				found = false
				break
			}
			if current, found = obj[seg]; !found {
				break
			}
		}
		if found {
			return current, true
		}
	}
	return nil, false
}
