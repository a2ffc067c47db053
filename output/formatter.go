package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Formatter defines the interface for output formatters.
//
// Implementers must provide Format to render rows in the order of columns
// and SetOutput to change the output destination.
type Formatter interface {
	// Format writes rows in the formatter's specific format. When columns
	// is empty the union of row keys is used, sorted by name.
	Format(columns []string, rows []map[string]interface{}) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// Formats lists the names accepted by New.
var Formats = []string{"table", "json", "jsonl", "csv"}

// New creates the formatter registered under name.
func New(name string, w io.Writer) (Formatter, error) {
	switch strings.ToLower(name) {
	case "table":
		return NewTableFormatter(w), nil
	case "json":
		return NewJSONFormatter(w), nil
	case "jsonl":
		return NewJSONLinesFormatter(w), nil
	case "csv":
		return NewCSVFormatter(w), nil
	}
	return nil, fmt.Errorf("unsupported format %q (supported: %s)", name, strings.Join(Formats, ", "))
}

// resolveColumns returns columns, or the sorted union of row keys when
// columns is empty. Rows of an outer join or sparse data may disagree.
func resolveColumns(columns []string, rows []map[string]interface{}) []string {
	if len(columns) > 0 {
		return columns
	}

	columnSet := make(map[string]bool)
	for _, row := range rows {
		for col := range row {
			columnSet[col] = true
		}
	}

	out := make([]string, 0, len(columnSet))
	for col := range columnSet {
		out = append(out, col)
	}
	sort.Strings(out)
	return out
}
