package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

// ParquetReader reads a parquet file as one table of rows.
//
// It keeps the underlying file handle, if any, so Close can release it.
type ParquetReader struct {
	closer io.Closer
	pqFile *parquet.File
}

// NewParquetReader opens the parquet file at path.
//
// Returns an error if the file doesn't exist or is not a valid parquet file.
//
// Example:
//
//	r, err := NewParquetReader("friends.parquet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
func NewParquetReader(path string) (*ParquetReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	r, err := newParquetReader(file, stat.Size(), file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return r, nil
}

// newParquetReaderFrom buffers a parquet stream, typically a decompressed
// one, so it can be read at random offsets.
func newParquetReaderFrom(r io.Reader) (*ParquetReader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	return newParquetReader(bytes.NewReader(data), int64(len(data)), nil)
}

func newParquetReader(r io.ReaderAt, size int64, closer io.Closer) (*ParquetReader, error) {
	pqFile, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	return &ParquetReader{closer: closer, pqFile: pqFile}, nil
}

// ReadAll reads all rows into memory.
//
// Values are converted to the engine's value types: integers become int64,
// byte arrays become strings, groups become nested objects.
func (r *ParquetReader) ReadAll() ([]map[string]interface{}, error) {
	rows := make([]map[string]interface{}, 0, r.pqFile.NumRows())

	reader := parquet.NewReader(r.pqFile)
	defer func() { _ = reader.Close() }()

	for {
		row := make(map[string]interface{})
		err := reader.Read(&row)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		rows = append(rows, normalize(row).(map[string]interface{}))
	}

	return rows, nil
}

// Schema returns the parquet file schema.
func (r *ParquetReader) Schema() *parquet.Schema {
	return r.pqFile.Schema()
}

// Close releases the underlying file. It is safe to call Close multiple
// times.
func (r *ParquetReader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}
