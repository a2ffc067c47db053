package output

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableFormatter renders rows as a fixed-width text table.
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// SetOutput sets the output writer
func (f *TableFormatter) SetOutput(w io.Writer) {
	f.writer = w
}

// Format writes rows as a table with one column per entry of columns.
// Header names are printed as given.
func (f *TableFormatter) Format(columns []string, rows []map[string]interface{}) error {
	columns = resolveColumns(columns, rows)

	t := table.NewWriter()
	t.SetOutputMirror(f.writer)
	t.SetStyle(table.StyleDefault)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Options.SeparateRows = false

	header := make(table.Row, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, row := range rows {
		tableRow := make(table.Row, len(columns))
		for i, col := range columns {
			tableRow[i] = cellValue(row[col])
		}
		t.AppendRow(tableRow)
	}

	t.Render()
	return nil
}

func cellValue(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return displayValue(v)
}
