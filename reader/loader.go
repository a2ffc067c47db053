package reader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"

	"github.com/gitsangramdesai/JSON-SQLParser/query"
)

// Format is the encoding of a dataset file.
type Format string

const (
	FormatJSON      Format = "json"
	FormatJSONLines Format = "jsonl"
	FormatYAML      Format = "yaml"
	FormatParquet   Format = "parquet"
)

// maxFiles bounds how many files one glob pattern may load.
const maxFiles = 1000

var formatsByExt = map[string]Format{
	".json":    FormatJSON,
	".jsonl":   FormatJSONLines,
	".ndjson":  FormatJSONLines,
	".yaml":    FormatYAML,
	".yml":     FormatYAML,
	".parquet": FormatParquet,
}

// decompressors open a decompressing stream, keyed by file suffix.
var decompressors = map[string]func(io.Reader) (io.ReadCloser, error){
	".zst":  openZstd,
	".zstd": openZstd,
	".sz": func(r io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(snappy.NewReader(r)), nil
	},
	".snappy": func(r io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(snappy.NewReader(r)), nil
	},
	".gz": func(r io.Reader) (io.ReadCloser, error) {
		return gzip.NewReader(r)
	},
	".lz4": func(r io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(lz4.NewReader(r)), nil
	},
	".br": func(r io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(brotli.NewReader(r)), nil
	},
}

func openZstd(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

// Source describes how a file name is decoded.
type Source struct {
	Format Format
	// Compression is the compression suffix, empty for plain files.
	Compression string
	// Table names the table of files whose top level is an array, and of
	// parquet and JSON Lines files: the base name without extensions.
	Table string
}

// Detect derives the format, compression and table name from a file name,
// e.g. "friends.json.zst" is zstd-compressed JSON whose rows form "friends".
func Detect(name string) (Source, error) {
	base := filepath.Base(name)
	var src Source

	ext := strings.ToLower(filepath.Ext(base))
	if _, ok := decompressors[ext]; ok {
		src.Compression = ext
		base = base[:len(base)-len(ext)]
		ext = strings.ToLower(filepath.Ext(base))
	}

	format, ok := formatsByExt[ext]
	if !ok {
		return Source{}, fmt.Errorf("unsupported file type: %s", name)
	}
	src.Format = format
	src.Table = base[:len(base)-len(ext)]
	if src.Table == "" {
		return Source{}, fmt.Errorf("cannot derive a table name from %s", name)
	}
	return src, nil
}

// LoadFiles loads every path, expanding glob patterns, into one dataset.
// Two files defining the same top-level name is an error.
func LoadFiles(patterns []string) (query.Dataset, error) {
	ds := query.NewDataset()
	owners := make(map[string]string)

	for _, pattern := range patterns {
		paths, err := expand(pattern)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			loaded, err := LoadFile(path)
			if err != nil {
				return nil, err
			}
			for name := range loaded {
				if owner, ok := owners[name]; ok {
					return nil, fmt.Errorf("table %q is defined by both %s and %s", name, owner, path)
				}
				owners[name] = path
			}
			ds.Merge(loaded)
		}
	}

	return ds, nil
}

// expand resolves a glob pattern; a plain path is returned as is.
func expand(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[") {
		return []string{pattern}, nil
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match pattern: %s", pattern)
	}
	if len(matches) > maxFiles {
		return nil, fmt.Errorf("glob pattern matched too many files (%d), maximum is %d", len(matches), maxFiles)
	}
	return matches, nil
}

// LoadFile loads one dataset file.
func LoadFile(path string) (query.Dataset, error) {
	src, err := Detect(path)
	if err != nil {
		return nil, err
	}

	if src.Format == FormatParquet && src.Compression == "" {
		r, err := NewParquetReader(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		defer func() { _ = r.Close() }()
		return parquetDataset(r, src.Table, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	ds, err := Decode(file, src)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ds, nil
}

// Decode reads a dataset from r.
func Decode(r io.Reader, src Source) (query.Dataset, error) {
	if src.Compression != "" {
		open, ok := decompressors[src.Compression]
		if !ok {
			return nil, fmt.Errorf("unsupported compression: %s", src.Compression)
		}
		rc, err := open(r)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress: %w", err)
		}
		defer func() { _ = rc.Close() }()
		r = rc
	}

	switch src.Format {
	case FormatJSON:
		return decodeJSON(r, src.Table)
	case FormatJSONLines:
		return decodeJSONLines(r, src.Table)
	case FormatYAML:
		return decodeYAML(r, src.Table)
	case FormatParquet:
		pr, err := newParquetReaderFrom(r)
		if err != nil {
			return nil, err
		}
		return parquetDataset(pr, src.Table, src.Table)
	}
	return nil, fmt.Errorf("unsupported format: %s", src.Format)
}

func parquetDataset(r *ParquetReader, table, name string) (query.Dataset, error) {
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from %s: %w", name, err)
	}
	ds := query.NewDataset()
	ds.AddTable(table, rows)
	return ds, nil
}

func decodeJSON(r io.Reader, table string) (query.Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("invalid JSON: unexpected data after the top-level value")
	}
	return toDataset(doc, table)
}

// decodeJSONLines reads one object per line into a single table.
func decodeJSONLines(r io.Reader, table string) (query.Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var rows []interface{}
	for {
		var row map[string]interface{}
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid JSON line %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
	}
	return toDataset(rows, table)
}

func decodeYAML(r io.Reader, table string) (query.Dataset, error) {
	var doc interface{}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return query.NewDataset(), nil
		}
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return toDataset(doc, table)
}

// toDataset turns a decoded document into a dataset. An object is the
// dataset itself; an array is a single table.
func toDataset(doc interface{}, table string) (query.Dataset, error) {
	if rows, ok := doc.([]interface{}); ok {
		ds := query.NewDataset()
		ds[table] = normalize(rows)
		return ds, nil
	}
	obj, ok := normalize(doc).(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("top-level value must be an object or an array, got %T", doc)
	}
	return query.Dataset(obj), nil
}

// normalize converts decoded values to the engine's value types: nil, bool,
// int64, float64, string, objects and arrays.
func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		return unsigned(uint64(val))
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return unsigned(val)
	case float32:
		return float64(val)
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	}
	return v
}

func unsigned(u uint64) interface{} {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}
