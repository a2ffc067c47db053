package query

import (
	"math"
	"testing"
)

// mustExpr parses src as a select-list expression.
func mustExpr(t *testing.T, src string) Expr {
	t.Helper()
	plan, err := Parse("SELECT " + src + " FROM t")
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", src, err)
	}
	return plan.Select[0].Expr
}

func TestEvaluator_IdentifierResolution(t *testing.T) {
	row := map[string]interface{}{
		"name":         "Alice",
		"friends.city": "Pune",
		"c.code":       "IN",
		"address":      map[string]interface{}{"zip": "411001"},
	}

	tests := []struct {
		name string
		expr string
		vars map[string]interface{}
		want interface{}
	}{
		{"row column", "name", nil, "Alice"},
		{"vars shadow row", "name", map[string]interface{}{"name": "Bob"}, "Bob"},
		{"qualified column", "friends.city", nil, "Pune"},
		{"unqualified suffix match", "code", nil, "IN"},
		{"nested object path", "address.zip", nil, "411001"},
		{"named constant", "PI", nil, math.Pi},
		{"bare word is text", "Mumbai", nil, "Mumbai"},
		{"missing qualified column is null", "x.y", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := NewEvaluator(nil, NewDiagnostics())
			got := ev.Evaluate(mustExpr(t, tt.expr), row, tt.vars)
			if got != tt.want {
				t.Errorf("Evaluate(%s) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvaluator_ValueTreatsMissingAsNull(t *testing.T) {
	ev := NewEvaluator(nil, nil)
	if got := ev.Value(&ColumnRef{Name: "missing"}, map[string]interface{}{}, nil); got != nil {
		t.Errorf("Value(missing) = %v, want nil", got)
	}
	if got := ev.Value(&ColumnRef{Name: "E"}, map[string]interface{}{}, nil); got != math.E {
		t.Errorf("Value(E) = %v, want %v", got, math.E)
	}
}

func TestEvaluator_Expressions(t *testing.T) {
	row := map[string]interface{}{
		"age":   float64(30),
		"name":  "Alice",
		"score": "12.5",
		"city":  nil,
	}

	tests := []struct {
		name string
		expr string
		want interface{}
	}{
		{"integer arithmetic", "2 + 3 * 4", int64(14)},
		{"float arithmetic", "age / 4", 7.5},
		{"numeric string coerces", "score * 2", 25.0},
		{"plus concatenates text", "name + '!'", "Alice!"},
		{"unary minus", "-age", -30.0},
		{"comparison", "age >= 30", true},
		{"numeric string equality", "score = 12.5", true},
		{"string ordering", "'abc' < 'abd'", true},
		{"string equality ignores case", "name = 'alice'", true},
		{"null equals null", "city = NULL", true},
		{"null ordering is false", "city > 1", false},
		{"and or", "age > 10 AND (name = 'Bob' OR name = 'Alice')", true},
		{"not", "NOT age > 40", true},
		{"contains", "name CONTAINS 'lic'", true},
		{"like is case-insensitive", "name LIKE 'a%E'", true},
		{"like single char", "name LIKE 'Al_ce'", true},
		{"like percent in subject", "'%ab' LIKE '%b'", true},
		{"like backtracks past repeats", "'xaab' LIKE '%ab'", true},
		{"infinity text stays text", "'inf' = 'Infinity'", false},
		{"infinity text concatenates", "'Infinity' + 1", "Infinity1"},
		{"hex text stays text", "'0x10' = 16", false},
		{"in list", "age IN (10, 30)", true},
		{"not in list", "name NOT IN ('Alice')", false},
		{"is null on null", "city IS NULL", true},
		{"is null on missing", "country IS NULL", true},
		{"is not null", "name IS NOT NULL", true},
		{"function call", "UPPER(name)", "ALICE"},
		{"nested function call", "LENGTH(CONCAT(name, 'xy'))", int64(7)},
		{"case-insensitive function", "lower(name)", "alice"},
		{"boolean literal", "false", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diag := NewDiagnostics()
			ev := NewEvaluator(nil, diag)
			got := ev.Evaluate(mustExpr(t, tt.expr), row, nil)
			if got != tt.want {
				t.Errorf("Evaluate(%s) = %#v, want %#v", tt.expr, got, tt.want)
			}
			if w := diag.Warnings(); len(w) != 0 {
				t.Errorf("unexpected warnings %v", w)
			}
		})
	}
}

func TestEvaluator_Warnings(t *testing.T) {
	row := map[string]interface{}{"age": float64(30), "name": "Alice"}

	tests := []struct {
		name string
		expr string
		want interface{}
		code WarningCode
	}{
		{"unknown function", "NOPE(age)", nil, WarnUnknownFunction},
		{"division by zero returns dividend", "age / 0", 30.0, WarnDivisionByZero},
		{"integer division by zero", "7 / 0", int64(7), WarnDivisionByZero},
		{"non-numeric arithmetic", "name * 2", nil, WarnTypeCoercion},
		{"nan text is not a number", "'NaN' * 2", nil, WarnTypeCoercion},
		{"hex float text is not a number", "'0x1p-2' - 1", nil, WarnTypeCoercion},
		{"number ordered against text", "age > 'abc'", false, WarnTypeCoercion},
		{"function error", "SQRT(-1)", nil, WarnFunctionError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diag := NewDiagnostics()
			ev := NewEvaluator(nil, diag)
			got := ev.Evaluate(mustExpr(t, tt.expr), row, nil)
			if got != tt.want {
				t.Errorf("Evaluate(%s) = %#v, want %#v", tt.expr, got, tt.want)
			}
			if !diag.Has(tt.code) {
				t.Errorf("warnings %v, want %s", diag.Warnings(), tt.code)
			}
		})
	}
}

func TestEvaluator_AggregateTemporaries(t *testing.T) {
	ev := NewEvaluator(nil, nil)
	vars := map[string]interface{}{"count(*)": int64(3), "sum(age)": 90.0}

	if got := ev.Evaluate(mustExpr(t, "COUNT(*)"), nil, vars); got != int64(3) {
		t.Errorf("COUNT(*) = %v, want 3", got)
	}
	if got := ev.Evaluate(mustExpr(t, "SUM(age) / COUNT(*)"), nil, vars); got != 30.0 {
		t.Errorf("SUM(age) / COUNT(*) = %v, want 30", got)
	}
}

func TestDiagnostics_MergesDuplicates(t *testing.T) {
	diag := NewDiagnostics()
	diag.Warn(WarnUnknownFunction, "unknown function %s", "FOO")
	diag.Warn(WarnUnknownFunction, "unknown function %s", "FOO")
	diag.Warn(WarnDivisionByZero, "division by zero")

	warnings := diag.Warnings()
	if len(warnings) != 2 {
		t.Fatalf("len(Warnings()) = %d, want 2", len(warnings))
	}
	if warnings[0].Count != 2 {
		t.Errorf("Count = %d, want 2", warnings[0].Count)
	}
	codes := diag.Codes()
	if len(codes) != 2 || codes[0] != WarnDivisionByZero || codes[1] != WarnUnknownFunction {
		t.Errorf("Codes() = %v", codes)
	}

	var nilDiag *Diagnostics
	nilDiag.Warn(WarnTypeCoercion, "ignored")
	if nilDiag.Has(WarnTypeCoercion) {
		t.Error("nil Diagnostics recorded a warning")
	}
}
