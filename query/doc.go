// Package query provides SQL query parsing and execution for JSON-shaped data.
//
// This package implements a SQL-like query language over in-memory datasets
// with support for:
//   - SELECT [DISTINCT] with expressions and aliases
//   - WHERE and HAVING predicates (AND, OR, NOT, comparisons, CONTAINS,
//     LIKE, IN, IS NULL)
//   - JOINs (INNER, LEFT, RIGHT, FULL) on column equality
//   - GROUP BY with aggregate functions (COUNT, SUM, AVG, MIN, MAX, COALESCE)
//   - Window functions (ROW_NUMBER, RANK, DENSE_RANK)
//   - ORDER BY with locale-aware string collation
//   - LIMIT and OFFSET
//   - Output hints: WITH (HEADERCOLUMNUPPERCASE, OUTPUTJSON, PAGINATE)
//
// # Basic Usage
//
// Build a dataset and run a query against it:
//
//	ds := query.NewDataset()
//	ds.AddTable("friends", []map[string]interface{}{
//	    {"name": "Chris", "age": 23, "city": "New York"},
//	    {"name": "Emily", "age": 19, "city": "Atlanta"},
//	})
//
//	engine := query.NewEngine()
//	result, err := engine.Run("SELECT name FROM json.friends WHERE age > 20", ds)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Table paths are dotted; a leading "json" or "$" segment is optional.
//
// # Aggregation and GROUP BY
//
//	SELECT city, COUNT(*) AS total
//	FROM friends
//	GROUP BY city
//	HAVING total > 1
//
// Groups are returned in order of first appearance. A selected column that
// is neither grouped nor aggregated takes its value from the first row of
// the group.
//
// # Window Functions
//
//	SELECT name, ROW_NUMBER() OVER (PARTITION BY city ORDER BY name) AS r
//	FROM friends
//
// Rows that tie on the window ORDER BY keep their input order.
//
// # JOIN Operations
//
//	SELECT f.name, c.country
//	FROM friends f
//	LEFT JOIN cities c ON f.city = c.name
//
// Joined rows carry both unqualified and "table.column" names. Rows kept by
// outer joins have the missing side padded with Null.
//
// # Errors and Warnings
//
// Malformed queries and unknown tables fail with a *QueryError matching
// ErrMalformedQuery or ErrUnknownTable. Problems found while evaluating rows
// (unknown functions, failed coercions, division by zero) do not fail the
// query; they are reported in Result.Warnings.
package query
