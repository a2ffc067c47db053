// Package output renders query results.
//
// Supported formats:
//   - table: a fixed-width text table
//   - json: one JSON array of objects
//   - jsonl: one JSON object per line
//   - csv: comma-separated values with a header row
//
// Every formatter keeps the column order it is given, so the select-list
// order of a query survives into the output.
//
// Example usage:
//
//	formatter, err := output.New("table", os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := formatter.Format(result.Columns, result.Rows); err != nil {
//	    log.Fatal(err)
//	}
//
// A Pager shows long results a page at a time, prompting through a
// readline instance between pages.
package output
