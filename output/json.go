package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
)

// JSONFormatter outputs rows as a JSON array of objects.
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON array formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes rows as one JSON array whose object keys follow columns.
func (j *JSONFormatter) Format(columns []string, rows []map[string]interface{}) error {
	columns = resolveColumns(columns, rows)
	w := bufio.NewWriter(j.writer)

	if err := w.WriteByte('['); err != nil {
		return err
	}
	for i, row := range rows {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		obj, err := encodeObject(columns, row)
		if err != nil {
			return err
		}
		if _, err := w.Write(obj); err != nil {
			return err
		}
	}
	if _, err := w.WriteString("]\n"); err != nil {
		return err
	}
	return w.Flush()
}

// JSONLinesFormatter outputs rows as JSON Lines format
type JSONLinesFormatter struct {
	writer io.Writer
}

// NewJSONLinesFormatter creates a new JSON Lines formatter
func NewJSONLinesFormatter(w io.Writer) *JSONLinesFormatter {
	return &JSONLinesFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONLinesFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes rows as JSON Lines (one JSON object per line)
func (j *JSONLinesFormatter) Format(columns []string, rows []map[string]interface{}) error {
	columns = resolveColumns(columns, rows)
	w := bufio.NewWriter(j.writer)

	for _, row := range rows {
		obj, err := encodeObject(columns, row)
		if err != nil {
			return err
		}
		if _, err := w.Write(obj); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}

// encodeObject encodes row as a JSON object with keys in column order.
// Values JSON cannot represent (NaN, infinities) encode as null.
func encodeObject(columns []string, row map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		value, err := json.Marshal(row[col])
		if err != nil {
			value = []byte("null")
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
