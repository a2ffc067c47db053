package reader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/gitsangramdesai/JSON-SQLParser/query"
)

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
	// Optional is set when some row lacks the column or holds Null.
	Optional bool `json:"optional"`
	Repeated bool `json:"repeated"`
}

// TableInfo describes one table of a dataset.
type TableInfo struct {
	Path    string       `json:"path"`
	Rows    int          `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
}

// Describe lists every table of ds with its inferred columns, sorted by
// path.
func Describe(ds query.Dataset) ([]TableInfo, error) {
	var infos []TableInfo
	for _, path := range ds.Tables() {
		rows, err := ds.Table(path, "")
		if err != nil {
			return nil, err
		}
		infos = append(infos, TableInfo{Path: path, Rows: len(rows), Columns: InferColumns(rows)})
	}
	return infos, nil
}

// DescribeFile describes the tables of one dataset file. Plain parquet
// files report their declared schema.
func DescribeFile(path string) ([]TableInfo, error) {
	src, err := Detect(path)
	if err != nil {
		return nil, err
	}
	if src.Format != FormatParquet || src.Compression != "" {
		ds, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		return Describe(ds)
	}

	r, err := NewParquetReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer func() { _ = r.Close() }()

	return []TableInfo{{
		Path:    src.Table,
		Rows:    int(r.pqFile.NumRows()),
		Columns: ParquetColumns(r.Schema()),
	}}, nil
}

// InferColumns derives column types from the values of rows. Nested objects
// contribute their leaves with dot notation (e.g., "address.street"), which
// is also how queries reach them.
func InferColumns(rows []map[string]interface{}) []ColumnInfo {
	type column struct {
		kinds    map[string]bool
		present  int
		nulls    bool
		repeated bool
	}
	columns := make(map[string]*column)

	var visit func(prefix string, obj map[string]interface{})
	visit = func(prefix string, obj map[string]interface{}) {
		for key, v := range obj {
			name := key
			if prefix != "" {
				name = prefix + "." + key
			}
			if nested, ok := v.(map[string]interface{}); ok && len(nested) > 0 {
				visit(name, nested)
				continue
			}
			col, ok := columns[name]
			if !ok {
				col = &column{kinds: make(map[string]bool)}
				columns[name] = col
			}
			col.present++
			if v == nil {
				col.nulls = true
				continue
			}
			if _, ok := v.([]interface{}); ok {
				col.repeated = true
			}
			col.kinds[kindOf(v)] = true
		}
	}

	for _, row := range rows {
		visit("", row)
	}

	infos := make([]ColumnInfo, 0, len(columns))
	for name, col := range columns {
		infos = append(infos, ColumnInfo{
			Name:     name,
			Type:     mergeKinds(col.kinds),
			Optional: col.nulls || col.present < len(rows),
			Repeated: col.repeated,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func kindOf(v interface{}) string {
	switch v.(type) {
	case bool:
		return "BOOLEAN"
	case int64:
		return "INT64"
	case float64:
		return "FLOAT64"
	case string:
		return "STRING"
	case []interface{}:
		return "ARRAY"
	case map[string]interface{}:
		return "OBJECT"
	}
	return fmt.Sprintf("%T", v)
}

// mergeKinds names the type of a column seen with the given value kinds.
// Integers mixed with floats widen to FLOAT64.
func mergeKinds(kinds map[string]bool) string {
	switch len(kinds) {
	case 0:
		return "NULL"
	case 1:
		for k := range kinds {
			return k
		}
	}
	if len(kinds) == 2 && kinds["INT64"] && kinds["FLOAT64"] {
		return "FLOAT64"
	}
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)
	return "MIXED(" + strings.Join(names, ",") + ")"
}

// ParquetColumns describes the leaf columns of a parquet schema using its
// declared types rather than inferring them from values.
func ParquetColumns(schema *parquet.Schema) []ColumnInfo {
	var infos []ColumnInfo
	for _, field := range schema.Fields() {
		infos = append(infos, parquetFieldInfo(field, "", false)...)
	}
	return infos
}

// parquetFieldInfo walks a field, tracking whether any parent is repeated.
func parquetFieldInfo(field parquet.Field, prefix string, parentRepeated bool) []ColumnInfo {
	name := field.Name()
	if prefix != "" {
		name = prefix + "." + name
	}
	repeated := parentRepeated || field.Repeated()

	if children := field.Fields(); len(children) > 0 {
		var infos []ColumnInfo
		for _, child := range children {
			infos = append(infos, parquetFieldInfo(child, name, repeated)...)
		}
		return infos
	}

	return []ColumnInfo{{
		Name:     name,
		Type:     parquetType(field),
		Optional: field.Optional(),
		Repeated: repeated,
	}}
}

// parquetType maps a leaf field to the type names used by InferColumns,
// so a parquet table describes the same as its JSON equivalent.
func parquetType(field parquet.Field) string {
	if lt := field.Type().LogicalType(); lt != nil {
		switch lt.String() {
		case "STRING", "UTF8", "ENUM", "UUID", "JSON":
			return "STRING"
		}
	}

	switch field.Type().Kind() {
	case parquet.Boolean:
		return "BOOLEAN"
	case parquet.Int32, parquet.Int64:
		return "INT64"
	case parquet.Float, parquet.Double:
		return "FLOAT64"
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return "STRING"
	}
	return "UNKNOWN"
}
