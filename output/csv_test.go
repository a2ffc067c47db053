package output

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"strings"
	"testing"
)

func TestCSVFormatter_Format(t *testing.T) {
	tests := []struct {
		name      string
		columns   []string
		rows      []map[string]interface{}
		wantLines int
	}{
		{
			name:      "empty rows",
			columns:   []string{"id"},
			rows:      []map[string]interface{}{},
			wantLines: 0,
		},
		{
			name:    "single row",
			columns: []string{"id", "name"},
			rows: []map[string]interface{}{
				{"id": int64(1), "name": "alice"},
			},
			wantLines: 2, // header + 1 data row
		},
		{
			name:    "multiple rows",
			columns: []string{"id", "name"},
			rows: []map[string]interface{}{
				{"id": int64(1), "name": "alice"},
				{"id": int64(2), "name": "bob"},
			},
			wantLines: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewCSVFormatter(&buf).Format(tt.columns, tt.rows); err != nil {
				t.Fatalf("Format() error = %v", err)
			}

			if tt.wantLines == 0 {
				if buf.Len() != 0 {
					t.Errorf("Format() output should be empty for empty rows, got %q", buf.String())
				}
				return
			}

			records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
			if err != nil {
				t.Fatalf("Format() produced invalid CSV: %v", err)
			}
			if len(records) != tt.wantLines {
				t.Errorf("Format() produced %d lines, want %d", len(records), tt.wantLines)
			}
		})
	}
}

func TestCSVFormatter_ColumnOrder(t *testing.T) {
	rows := []map[string]interface{}{
		{"z_last": "value1", "a_first": "value2", "m_middle": "value3"},
	}

	t.Run("given order", func(t *testing.T) {
		var buf bytes.Buffer
		if err := NewCSVFormatter(&buf).Format([]string{"z_last", "a_first", "m_middle"}, rows); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		want := "z_last,a_first,m_middle\nvalue1,value2,value3\n"
		if buf.String() != want {
			t.Errorf("Format() = %q, want %q", buf.String(), want)
		}
	})

	t.Run("sorted union without columns", func(t *testing.T) {
		var buf bytes.Buffer
		sparse := []map[string]interface{}{{"b": int64(1)}, {"a": int64(2)}}
		if err := NewCSVFormatter(&buf).Format(nil, sparse); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
		if err != nil {
			t.Fatalf("Failed to parse CSV: %v", err)
		}
		want := [][]string{{"a", "b"}, {"", "1"}, {"2", ""}}
		if !reflect.DeepEqual(records, want) {
			t.Errorf("records = %v, want %v", records, want)
		}
	})
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, ""},
		{"string", "alice", "alice"},
		{"int", int64(-42), "-42"},
		{"float", 95.5, "95.5"},
		{"whole float", 3.0, "3"},
		{"bool", true, "true"},
		{"null marker", "NULL", "NULL"},
		{"array", []interface{}{"a", int64(1)}, `["a",1]`},
		{"object", map[string]interface{}{"city": "Pune"}, `{"city":"Pune"}`},
		{"formula", "=SUM(A1)", "'=SUM(A1)"},
		{"formula with quote", "+it's", "'+it''s"},
		{"negative text", "-5", "'-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(tt.in); got != tt.want {
				t.Errorf("formatValue(%#v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
