// Package reader loads query datasets from files.
//
// Supported formats, chosen by file extension:
//   - JSON (.json): an object is the dataset itself; an array is a table
//     named after the file
//   - JSON Lines (.jsonl, .ndjson): one object per line, one table
//   - YAML (.yaml, .yml): same shapes as JSON
//   - Parquet (.parquet): one table named after the file
//
// Any of these may carry a compression suffix: .zst/.zstd, .sz/.snappy,
// .gz, .lz4 or .br.
//
// # Basic Usage
//
// Loading files into one dataset:
//
//	ds, err := reader.LoadFiles([]string{"friends.json", "data/*.parquet"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := query.NewEngine().Run("SELECT * FROM friends", ds)
//
// # Schema Introspection
//
// Describing the tables of a dataset:
//
//	tables, err := reader.Describe(ds)
//	for _, t := range tables {
//	    for _, col := range t.Columns {
//	        fmt.Printf("%s.%s: %s\n", t.Path, col.Name, col.Type)
//	    }
//	}
//
// The package uses github.com/parquet-go/parquet-go for parquet files.
package reader
