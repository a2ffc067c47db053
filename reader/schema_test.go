package reader

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/gitsangramdesai/JSON-SQLParser/query"
)

func TestInferColumns(t *testing.T) {
	rows := []map[string]interface{}{
		{"name": "Chris", "age": int64(23), "score": int64(7), "address": map[string]interface{}{"city": "NY"}},
		{"name": "Emily", "age": int64(19), "score": 8.5, "tags": []interface{}{"a"}, "flag": true},
		{"name": nil, "age": int64(31), "score": "n/a", "address": map[string]interface{}{"city": "LA", "zip": int64(1)}},
	}

	want := []ColumnInfo{
		{Name: "address.city", Type: "STRING", Optional: true},
		{Name: "address.zip", Type: "INT64", Optional: true},
		{Name: "age", Type: "INT64"},
		{Name: "flag", Type: "BOOLEAN", Optional: true},
		{Name: "name", Type: "STRING", Optional: true},
		{Name: "score", Type: "MIXED(FLOAT64,INT64,STRING)"},
		{Name: "tags", Type: "ARRAY", Optional: true, Repeated: true},
	}

	if got := InferColumns(rows); !reflect.DeepEqual(got, want) {
		t.Errorf("InferColumns() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestInferColumns_Widening(t *testing.T) {
	tests := []struct {
		name   string
		values []interface{}
		want   string
	}{
		{"ints and floats", []interface{}{int64(1), 2.5}, "FLOAT64"},
		{"only nulls", []interface{}{nil, nil}, "NULL"},
		{"strings", []interface{}{"a", "b"}, "STRING"},
		{"bool and string", []interface{}{true, "x"}, "MIXED(BOOLEAN,STRING)"},
		{"empty object", []interface{}{map[string]interface{}{}}, "OBJECT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]map[string]interface{}, len(tt.values))
			for i, v := range tt.values {
				rows[i] = map[string]interface{}{"v": v}
			}
			cols := InferColumns(rows)
			if len(cols) != 1 || cols[0].Type != tt.want {
				t.Errorf("InferColumns() = %+v, want type %s", cols, tt.want)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	ds := query.NewDataset()
	ds.AddTable("friends", []map[string]interface{}{{"name": "Chris"}})
	ds["json"] = map[string]interface{}{
		"cities": []interface{}{map[string]interface{}{"cityName": "Pune"}, "Delhi"},
	}

	infos, err := Describe(ds)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}

	want := []TableInfo{
		{Path: "friends", Rows: 1, Columns: []ColumnInfo{{Name: "name", Type: "STRING"}}},
		{Path: "json.cities", Rows: 2, Columns: []ColumnInfo{
			{Name: "cityName", Type: "STRING", Optional: true},
			{Name: "value", Type: "STRING", Optional: true},
		}},
	}
	if !reflect.DeepEqual(infos, want) {
		t.Errorf("Describe() =\n%+v\nwant\n%+v", infos, want)
	}
}

type describedRow struct {
	ID    int64    `parquet:"id"`
	Name  string   `parquet:"name"`
	Score *float64 `parquet:"score,optional"`
	Tags  []string `parquet:"tags,list"`
}

func TestDescribeFile_Parquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.parquet")
	score := 9.5
	if err := parquet.WriteFile(path, []describedRow{
		{ID: 1, Name: "Alice", Score: &score, Tags: []string{"a"}},
		{ID: 2, Name: "Bob"},
	}); err != nil {
		t.Fatalf("failed to write parquet file: %v", err)
	}

	infos, err := DescribeFile(path)
	if err != nil {
		t.Fatalf("DescribeFile() error = %v", err)
	}
	if len(infos) != 1 || infos[0].Path != "people" || infos[0].Rows != 2 {
		t.Fatalf("DescribeFile() = %+v", infos)
	}

	byName := make(map[string]ColumnInfo)
	for _, col := range infos[0].Columns {
		byName[col.Name] = col
	}

	if col := byName["id"]; col.Type != "INT64" || col.Optional || col.Repeated {
		t.Errorf("id = %+v", col)
	}
	if col := byName["name"]; col.Type != "STRING" {
		t.Errorf("name = %+v", col)
	}
	if col := byName["score"]; col.Type != "FLOAT64" || !col.Optional {
		t.Errorf("score = %+v", col)
	}

	var tagsRepeated bool
	for name, col := range byName {
		if len(name) >= 4 && name[:4] == "tags" && col.Repeated && col.Type == "STRING" {
			tagsRepeated = true
		}
	}
	if !tagsRepeated {
		t.Errorf("tags list not reported as a repeated STRING leaf: %+v", infos[0].Columns)
	}
}

func TestDescribeFile_InfersOtherFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "friends.yaml")
	if err := os.WriteFile(path, []byte("friends:\n  - name: Chris\n    age: 23\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	infos, err := DescribeFile(path)
	if err != nil {
		t.Fatalf("DescribeFile() error = %v", err)
	}
	want := []TableInfo{{Path: "friends", Rows: 1, Columns: []ColumnInfo{
		{Name: "age", Type: "INT64"},
		{Name: "name", Type: "STRING"},
	}}}
	if !reflect.DeepEqual(infos, want) {
		t.Errorf("DescribeFile() = %+v, want %+v", infos, want)
	}

	if _, err := DescribeFile(filepath.Join(t.TempDir(), "missing.parquet")); err == nil {
		t.Error("DescribeFile() expected an error for a missing file")
	}
}
