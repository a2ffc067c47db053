package query

import (
	"testing"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

func windowFixture() []map[string]interface{} {
	return []map[string]interface{}{
		{"name": "Alice", "dept": "eng", "salary": float64(100)},
		{"name": "Bob", "dept": "ops", "salary": float64(80)},
		{"name": "Cara", "dept": "eng", "salary": float64(120)},
		{"name": "Dev", "dept": "eng", "salary": float64(100)},
		{"name": "Eve", "dept": "ops", "salary": float64(90)},
	}
}

func TestApplyWindows(t *testing.T) {
	tests := []struct {
		name  string
		query string
		key   string
		want  []int64
	}{
		{
			name:  "row number over everything",
			query: "SELECT name, ROW_NUMBER() OVER () FROM t",
			key:   "row_number() over ()",
			want:  []int64{1, 2, 3, 4, 5},
		},
		{
			name:  "row number per partition in input order",
			query: "SELECT name, ROW_NUMBER() OVER (PARTITION BY dept) FROM t",
			key:   "row_number() over (partition by dept)",
			want:  []int64{1, 1, 2, 3, 2},
		},
		{
			name:  "row number ordered with stable ties",
			query: "SELECT name, ROW_NUMBER() OVER (PARTITION BY dept ORDER BY salary DESC) FROM t",
			key:   "row_number() over (partition by dept order by salary DESC)",
			want:  []int64{2, 2, 1, 3, 1},
		},
		{
			name:  "rank leaves gaps",
			query: "SELECT name, RANK() OVER (ORDER BY salary DESC) FROM t",
			key:   "rank() over (order by salary DESC)",
			want:  []int64{2, 5, 1, 2, 4},
		},
		{
			name:  "dense rank has no gaps",
			query: "SELECT name, DENSE_RANK() OVER (ORDER BY salary DESC) FROM t",
			key:   "dense_rank() over (order by salary DESC)",
			want:  []int64{2, 4, 1, 2, 3},
		},
		{
			name:  "rank without order by ties everything",
			query: "SELECT name, RANK() OVER (PARTITION BY dept) FROM t",
			key:   "rank() over (partition by dept)",
			want:  []int64{1, 1, 1, 1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := mustParse(t, tt.query)
			if got := plan.Select[1].Expr.String(); got != tt.key {
				t.Fatalf("window text = %q, want %q", got, tt.key)
			}

			recs := newRecords(windowFixture())
			ord := &orderer{collator: collate.New(language.English)}
			applyWindows(recs, plan.Select, NewEvaluator(nil, nil), ord)

			for i, rec := range recs {
				if got := rec.vars[tt.key]; got != tt.want[i] {
					t.Errorf("%s: got %v, want %d", rec.row["name"], got, tt.want[i])
				}
			}
		})
	}
}

func TestApplyWindows_KeepsRecordOrder(t *testing.T) {
	plan := mustParse(t, "SELECT name, ROW_NUMBER() OVER (ORDER BY name DESC) AS rn FROM t")
	recs := newRecords(windowFixture())
	applyWindows(recs, plan.Select, NewEvaluator(nil, nil), &orderer{})

	want := []string{"Alice", "Bob", "Cara", "Dev", "Eve"}
	for i, rec := range recs {
		if rec.row["name"] != want[i] {
			t.Errorf("record %d = %v, want %s", i, rec.row["name"], want[i])
		}
	}
}

func TestApplyWindows_SeesEveryRecord(t *testing.T) {
	// Two windows over the same records must not see each other's values.
	plan := mustParse(t, "SELECT ROW_NUMBER() OVER (ORDER BY salary), ROW_NUMBER() OVER (ORDER BY name DESC) FROM t")
	recs := newRecords(windowFixture())
	applyWindows(recs, plan.Select, NewEvaluator(nil, nil), &orderer{})

	first := plan.Select[0].Expr.String()
	second := plan.Select[1].Expr.String()
	wantFirst := []int64{3, 1, 5, 4, 2}
	wantSecond := []int64{5, 4, 3, 2, 1}
	for i, rec := range recs {
		if rec.vars[first] != wantFirst[i] || rec.vars[second] != wantSecond[i] {
			t.Errorf("record %d = (%v, %v), want (%d, %d)", i, rec.vars[first], rec.vars[second], wantFirst[i], wantSecond[i])
		}
	}
}

func TestHasWindowFunction(t *testing.T) {
	if HasWindowFunction(mustParse(t, "SELECT name FROM t").Select) {
		t.Error("plain select reported a window")
	}
	if !HasWindowFunction(mustParse(t, "SELECT RANK() OVER (ORDER BY a) FROM t").Select) {
		t.Error("window not detected")
	}
}
