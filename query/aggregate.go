package query

import (
	"strconv"
	"strings"
)

// aggregateNames are the functions computed over a whole group when called
// with a single argument.
var aggregateNames = map[string]bool{
	"SUM":      true,
	"COUNT":    true,
	"AVG":      true,
	"MIN":      true,
	"MAX":      true,
	"COALESCE": true,
}

// groupKeySep separates the quoted values of a group key. Quoting escapes
// it inside values; Null is encoded as the unquoted nullKey.
const (
	groupKeySep = "\x1f"
	nullKey     = "\x00"
)

// record is a row moving through the pipeline, with the temporaries
// computed for it and, once projected, its output row.
type record struct {
	row  map[string]interface{}
	vars map[string]interface{}
	out  map[string]interface{}
}

func newRecords(rows []map[string]interface{}) []*record {
	recs := make([]*record, len(rows))
	for i, row := range rows {
		recs[i] = &record{row: row, vars: make(map[string]interface{})}
	}
	return recs
}

// Group is a bucket of records sharing the same GROUP BY values
type Group struct {
	Key     string
	Records []*record
}

// isAggregate reports whether call is computed over a group.
func isAggregate(call *FunctionCall) bool {
	return len(call.Args) == 1 && aggregateNames[strings.ToUpper(call.Name)]
}

// HasAggregate reports whether the select list aggregates, which groups the
// whole input into one row when there is no GROUP BY. COALESCE alone does
// not.
func HasAggregate(items []SelectItem) bool {
	for _, item := range items {
		for _, call := range collectAggregates(item.Expr, nil) {
			if !strings.EqualFold(call.Name, "COALESCE") {
				return true
			}
		}
	}
	return false
}

// collectAggregates appends the aggregate calls of expr to calls. Arguments
// of an aggregate are not searched.
func collectAggregates(expr Expr, calls []*FunctionCall) []*FunctionCall {
	switch e := expr.(type) {
	case *FunctionCall:
		if isAggregate(e) {
			return append(calls, e)
		}
		for _, arg := range e.Args {
			calls = collectAggregates(arg, calls)
		}
	case *BinaryOp:
		calls = collectAggregates(e.Left, calls)
		calls = collectAggregates(e.Right, calls)
	case *UnaryOp:
		calls = collectAggregates(e.Operand, calls)
	case *InList:
		calls = collectAggregates(e.Operand, calls)
	case *IsNull:
		calls = collectAggregates(e.Operand, calls)
	}
	return calls
}

// planAggregates returns the distinct aggregate calls used by the select
// list, HAVING and ORDER BY.
func planAggregates(plan *Plan) []*FunctionCall {
	var calls []*FunctionCall
	for _, item := range plan.Select {
		calls = collectAggregates(item.Expr, calls)
	}
	calls = collectAggregates(plan.Having, calls)
	for _, item := range plan.OrderBy {
		calls = collectAggregates(item.Expr, calls)
	}

	seen := make(map[string]bool)
	distinct := calls[:0]
	for _, call := range calls {
		key := call.String()
		if !seen[key] {
			seen[key] = true
			distinct = append(distinct, call)
		}
	}
	return distinct
}

// groupRecords buckets records by their GROUP BY values, in order of first
// appearance. Without GROUP BY every record lands in a single group.
func groupRecords(recs []*record, plan *Plan, ev *Evaluator) []*Group {
	var groups []*Group

	if len(plan.GroupBy) == 0 {
		groups = []*Group{{Records: recs}}
	} else {
		index := make(map[string]*Group)
		for _, rec := range recs {
			key := groupKey(rec, plan.GroupBy, ev)
			group, ok := index[key]
			if !ok {
				group = &Group{Key: key}
				index[key] = group
				groups = append(groups, group)
			}
			group.Records = append(group.Records, rec)
		}
	}

	return groups
}

// aggregate computes the output record of each group. The record is a copy
// of the group's first row, so ungrouped columns take first-row values.
// Aggregates are published in vars under their canonical text and under
// the alias of a select item that is exactly that aggregate.
func aggregate(groups []*Group, plan *Plan, ev *Evaluator) []*record {
	calls := planAggregates(plan)
	out := make([]*record, 0, len(groups))

	for _, group := range groups {
		rec := &record{row: make(map[string]interface{}), vars: make(map[string]interface{})}
		if len(group.Records) > 0 {
			rec.row = copyRow(group.Records[0].row)
		}

		for _, call := range calls {
			rec.vars[call.String()] = evaluateAggregate(call, group.Records, ev)
		}
		for _, item := range plan.Select {
			if call, ok := item.Expr.(*FunctionCall); ok && item.Alias != "" && isAggregate(call) {
				rec.vars[item.Alias] = rec.vars[call.String()]
			}
		}

		out = append(out, rec)
	}

	return out
}

// groupKey joins the GROUP BY values of rec.
func groupKey(rec *record, columns []*ColumnRef, ev *Evaluator) string {
	var key strings.Builder
	for i, col := range columns {
		if i > 0 {
			key.WriteString(groupKeySep)
		}
		v := ev.Value(col, rec.row, rec.vars)
		if v == nil {
			key.WriteString(nullKey)
		} else {
			key.WriteString(strconv.Quote(toString(v)))
		}
	}
	return key.String()
}

// evaluateAggregate computes one aggregate call over a group. Null and
// NullMarker values are ignored.
func evaluateAggregate(call *FunctionCall, recs []*record, ev *Evaluator) interface{} {
	name := strings.ToUpper(call.Name)
	arg := call.Args[0]

	if col, ok := arg.(*ColumnRef); ok && col.Name == "*" {
		if name == "COUNT" {
			return int64(len(recs))
		}
		ev.diag.Warn(WarnTypeCoercion, "%s(*) is not supported", name)
		return nil
	}

	values := make([]interface{}, 0, len(recs))
	for _, rec := range recs {
		if v := ev.Value(arg, rec.row, rec.vars); !isNullish(v) {
			values = append(values, v)
		}
	}

	switch name {
	case "COUNT":
		return int64(len(values))
	case "SUM":
		sum, _ := evaluateSum(call, values, ev)
		return sum
	case "AVG":
		sum, n := evaluateSum(call, values, ev)
		if n == 0 {
			return nil
		}
		return sum / float64(n)
	case "MIN":
		return extreme(values, -1)
	case "MAX":
		return extreme(values, 1)
	case "COALESCE":
		if len(values) > 0 {
			return values[0]
		}
	}
	return nil
}

// evaluateSum adds the numeric values and counts them. Other values are
// skipped with a warning.
func evaluateSum(call *FunctionCall, values []interface{}, ev *Evaluator) (float64, int) {
	sum, n := 0.0, 0
	for _, v := range values {
		num, ok := toNumber(v)
		if !ok {
			ev.diag.Warn(WarnTypeCoercion, "%s skipped non-numeric value %q", call.String(), toString(v))
			continue
		}
		sum += num
		n++
	}
	return sum, n
}
