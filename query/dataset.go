package query

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultRootNamespace is the optional leading segment of table paths
// ("json.friends" resolves the same as "friends").
const DefaultRootNamespace = "json"

// Dataset is the JSON-shaped input of a query: nested objects whose
// array-valued leaves are tables of objects. The engine never mutates it.
type Dataset map[string]interface{}

// NewDataset creates an empty dataset
func NewDataset() Dataset {
	return make(Dataset)
}

// AddTable stores rows under a dotted path, creating intermediate objects.
func (d Dataset) AddTable(path string, rows []map[string]interface{}) {
	segments := strings.Split(path, ".")
	node := map[string]interface{}(d)
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node[seg].(map[string]interface{})
		if !ok {
			child = make(map[string]interface{})
			node[seg] = child
		}
		node = child
	}

	table := make([]interface{}, len(rows))
	for i, row := range rows {
		table[i] = row
	}
	node[segments[len(segments)-1]] = table
}

// Merge copies the top-level entries of other into d.
func (d Dataset) Merge(other Dataset) {
	for k, v := range other {
		d[k] = v
	}
}

// Table resolves a table path. A leading root namespace segment or "$"
// segment is skipped unless the dataset has a key of that name.
func (d Dataset) Table(path, root string) ([]map[string]interface{}, error) {
	segments := strings.Split(path, ".")
	for len(segments) > 1 {
		if _, ok := d[segments[0]]; ok {
			break
		}
		if segments[0] != root && segments[0] != "$" {
			break
		}
		segments = segments[1:]
	}

	var node interface{} = map[string]interface{}(d)
	for _, seg := range segments {
		obj, ok := node.(map[string]interface{})
		if !ok {
			return nil, unknownTable(path, "%q is not an object", seg)
		}
		if node, ok = obj[seg]; !ok {
			return nil, unknownTable(path, "no table named %q", path)
		}
	}

	return asRows(path, node)
}

func unknownTable(path, format string, args ...interface{}) *QueryError {
	return &QueryError{Kind: KindUnknownTable, Clause: path, Msg: fmt.Sprintf(format, args...)}
}

// asRows converts a resolved node to rows. Scalars inside a table become
// rows with a single "value" column.
func asRows(path string, node interface{}) ([]map[string]interface{}, error) {
	switch table := node.(type) {
	case []map[string]interface{}:
		return table, nil
	case []interface{}:
		rows := make([]map[string]interface{}, len(table))
		for i, item := range table {
			if obj, ok := item.(map[string]interface{}); ok {
				rows[i] = obj
			} else {
				rows[i] = map[string]interface{}{"value": item}
			}
		}
		return rows, nil
	default:
		return nil, unknownTable(path, "%q is not a table", path)
	}
}

// Tables lists the dotted paths of every table in the dataset, sorted.
func (d Dataset) Tables() []string {
	var paths []string
	var walk func(prefix string, obj map[string]interface{})
	walk = func(prefix string, obj map[string]interface{}) {
		for key, v := range obj {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			switch child := v.(type) {
			case []interface{}, []map[string]interface{}:
				paths = append(paths, path)
			case map[string]interface{}:
				walk(path, child)
			}
		}
	}
	walk("", d)
	sort.Strings(paths)
	return paths
}

// tagRows copies rows, adding a "qualifier.column" key for every column.
func tagRows(rows []map[string]interface{}, qualifier string) []map[string]interface{} {
	out := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		tagged := make(map[string]interface{}, len(row)*2)
		for k, v := range row {
			tagged[k] = v
			tagged[qualifier+"."+k] = v
		}
		out[i] = tagged
	}
	return out
}
