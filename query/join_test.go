package query

import (
	"testing"
)

func joinFixtures() (left, right []map[string]interface{}) {
	left = tagRows([]map[string]interface{}{
		{"name": "Alice", "city": "Pune"},
		{"name": "Bob", "city": "Goa"},
		{"name": "Cara", "city": nil},
	}, "f")
	right = tagRows([]map[string]interface{}{
		{"name": "Pune", "country": "IN"},
		{"name": "Oslo", "country": "NO"},
	}, "c")
	return left, right
}

func TestJoin_Kinds(t *testing.T) {
	leftKey := &ColumnRef{Name: "f.city"}
	rightKey := &ColumnRef{Name: "c.name"}

	tests := []struct {
		name      string
		kind      JoinKind
		wantLeft  []interface{}
		wantRight []interface{}
	}{
		{"inner", JoinInner, []interface{}{"Alice"}, []interface{}{"Pune"}},
		{"left", JoinLeft, []interface{}{"Alice", "Bob", "Cara"}, []interface{}{"Pune", nil, nil}},
		{"right", JoinRight, []interface{}{"Alice", nil}, []interface{}{"Pune", "Oslo"}},
		{"full", JoinFull, []interface{}{"Alice", "Bob", "Cara", nil}, []interface{}{"Pune", nil, nil, "Oslo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left, right := joinFixtures()
			got := Join(left, right, tt.kind, leftKey, rightKey)
			if len(got) != len(tt.wantLeft) {
				t.Fatalf("Join() returned %d rows, want %d: %v", len(got), len(tt.wantLeft), got)
			}
			for i, row := range got {
				if row["f.name"] != tt.wantLeft[i] {
					t.Errorf("row %d f.name = %v, want %v", i, row["f.name"], tt.wantLeft[i])
				}
				if row["c.name"] != tt.wantRight[i] {
					t.Errorf("row %d c.name = %v, want %v", i, row["c.name"], tt.wantRight[i])
				}
			}
		})
	}
}

func TestJoin_UniformColumns(t *testing.T) {
	left, right := joinFixtures()
	got := Join(left, right, JoinFull, &ColumnRef{Name: "f.city"}, &ColumnRef{Name: "c.name"})

	// name, city, country plus the qualified copies of each side.
	const want = 7
	for i, row := range got {
		if len(row) != want {
			t.Errorf("row %d has %d columns, want %d: %v", i, len(row), want, row)
		}
		if _, ok := row["c.country"]; !ok {
			t.Errorf("row %d is missing padded column c.country", i)
		}
	}
}

func TestJoin_RightWinsOnCollision(t *testing.T) {
	left, right := joinFixtures()
	got := Join(left, right, JoinInner, &ColumnRef{Name: "f.city"}, &ColumnRef{Name: "c.name"})
	if len(got) != 1 {
		t.Fatalf("Join() returned %d rows, want 1", len(got))
	}
	if got[0]["name"] != "Pune" {
		t.Errorf("unqualified name = %v, want the right side's Pune", got[0]["name"])
	}
	if got[0]["f.name"] != "Alice" {
		t.Errorf("qualified f.name = %v, want Alice", got[0]["f.name"])
	}
}

func TestJoin_KeyMatching(t *testing.T) {
	tests := []struct {
		name  string
		left  []map[string]interface{}
		right []map[string]interface{}
		want  int
	}{
		{
			name:  "duplicate matches multiply",
			left:  []map[string]interface{}{{"k": "a"}},
			right: []map[string]interface{}{{"k": "a"}, {"k": "a"}, {"k": "b"}},
			want:  2,
		},
		{
			name:  "numbers match their text form",
			left:  []map[string]interface{}{{"k": float64(1)}, {"k": int64(2)}},
			right: []map[string]interface{}{{"k": "1"}, {"k": float64(2)}},
			want:  2,
		},
		{
			name:  "null keys never match",
			left:  []map[string]interface{}{{"k": nil}, {"other": 1}},
			right: []map[string]interface{}{{"k": nil}, {"k": ""}},
			want:  0,
		},
		{
			name:  "empty right table",
			left:  []map[string]interface{}{{"k": "a"}},
			right: nil,
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Join(tagRows(tt.left, "l"), tagRows(tt.right, "r"), JoinInner,
				&ColumnRef{Name: "l.k"}, &ColumnRef{Name: "r.k"})
			if len(got) != tt.want {
				t.Errorf("Join() returned %d rows, want %d: %v", len(got), tt.want, got)
			}
		})
	}
}

func TestJoin_DoesNotMutateInput(t *testing.T) {
	left, right := joinFixtures()
	Join(left, right, JoinFull, &ColumnRef{Name: "f.city"}, &ColumnRef{Name: "c.name"})

	if _, ok := left[1]["country"]; ok {
		t.Error("padding leaked into the left input rows")
	}
	if _, ok := right[1]["f.name"]; ok {
		t.Error("padding leaked into the right input rows")
	}
}
