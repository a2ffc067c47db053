package query

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Engine parses and executes queries against datasets. An Engine holds
// only configuration; every execution is independent, so one Engine may
// serve concurrent callers.
type Engine struct {
	registry *Registry
	logger   *zap.Logger
	locale   language.Tag
	root     string
}

// Option configures an Engine
type Option func(*Engine)

// WithRegistry sets the function registry used for parsing and evaluation.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithLocale sets the locale for ORDER BY string collation and header
// uppercasing.
func WithLocale(tag language.Tag) Option {
	return func(e *Engine) { e.locale = tag }
}

// WithRootNamespace sets the optional leading segment of table paths.
func WithRootNamespace(ns string) Option {
	return func(e *Engine) { e.root = ns }
}

// NewEngine creates an engine with the built-in registry, the English
// locale and the "json" root namespace unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		registry: builtinRegistry,
		logger:   zap.NewNop(),
		locale:   language.English,
		root:     DefaultRootNamespace,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's function registry
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Result is the output of one execution.
type Result struct {
	QueryID string
	// Columns lists the output names in select-list order.
	Columns []string
	Rows    []map[string]interface{}
	// JSON holds the serialized rows when the OUTPUTJSON hint is present.
	JSON string
	// Paginate asks the display layer to page the rows. It is never set
	// together with JSON.
	Paginate bool
	Warnings []Warning
}

// IsJSON reports whether the result was serialized by OUTPUTJSON.
func (r *Result) IsJSON() bool {
	return r.JSON != ""
}

// Parse parses a query with the engine's registry.
func (e *Engine) Parse(query string) (*Plan, error) {
	return ParseWith(query, e.registry)
}

// Run parses and executes a query.
func (e *Engine) Run(query string, ds Dataset) (*Result, error) {
	plan, err := e.Parse(query)
	if err != nil {
		e.logger.Debug("query rejected", zap.Error(err))
		return nil, err
	}
	return e.Execute(plan, ds)
}

// Execute runs a plan through the pipeline: resolve and join tables, WHERE,
// grouping, HAVING, window functions, projection, DISTINCT, ORDER BY,
// LIMIT/OFFSET and finally the output hints. Only table resolution can
// fail; evaluation problems surface as warnings.
func (e *Engine) Execute(plan *Plan, ds Dataset) (*Result, error) {
	start := time.Now()
	queryID := uuid.NewString()
	logger := e.logger.With(zap.String("query_id", queryID))

	diag := NewDiagnostics()
	ev := NewEvaluator(e.registry, diag)
	ord := &orderer{collator: collate.New(e.locale)}

	base, err := ds.Table(plan.BaseTable, e.root)
	if err != nil {
		logger.Debug("table resolution failed", zap.String("table", plan.BaseTable), zap.Error(err))
		return nil, err
	}
	rows := tagRows(base, plan.BaseQualifier())

	for _, join := range plan.Joins {
		right, err := ds.Table(join.TablePath, e.root)
		if err != nil {
			logger.Debug("table resolution failed", zap.String("table", join.TablePath), zap.Error(err))
			return nil, err
		}
		before := len(rows)
		rows = Join(rows, tagRows(right, join.Qualifier()), join.Kind, join.LeftKey, join.RightKey)
		logger.Debug("joined table",
			zap.String("table", join.TablePath),
			zap.Stringer("kind", join.Kind),
			zap.Int("left_rows", before),
			zap.Int("right_rows", len(right)),
			zap.Int("rows", len(rows)))
	}

	recs := newRecords(rows)
	recs = filterRecords(recs, plan.Where, ev)

	if len(plan.GroupBy) > 0 || HasAggregate(plan.Select) {
		groups := groupRecords(recs, plan, ev)
		recs = aggregate(groups, plan, ev)
		logger.Debug("grouped rows", zap.Int("groups", len(recs)))
	}

	recs = filterRecords(recs, plan.Having, ev)

	if HasWindowFunction(plan.Select) {
		applyWindows(recs, plan.Select, ev, ord)
	}

	columns := project(recs, plan.Select, ev)

	if plan.Distinct {
		recs = distinctRecords(recs, columns)
	}

	if len(plan.OrderBy) > 0 {
		keys := make([][]interface{}, len(recs))
		for i, rec := range recs {
			keys[i] = orderKey(rec, plan.OrderBy, ev)
		}
		ord.sortRecords(recs, keys, plan.OrderBy)
	}

	recs = limitRecords(recs, plan.Limit, plan.Offset)

	result := &Result{QueryID: queryID, Columns: columns}
	result.Rows = make([]map[string]interface{}, len(recs))
	for i, rec := range recs {
		result.Rows[i] = rec.out
	}

	if err := e.applyHints(result, plan.Hints); err != nil {
		return nil, err
	}
	result.Warnings = diag.Warnings()

	for _, w := range result.Warnings {
		logger.Debug("evaluation warning",
			zap.String("code", string(w.Code)),
			zap.String("message", w.Message),
			zap.Int("count", w.Count))
	}
	logger.Debug("query executed",
		zap.String("table", plan.BaseTable),
		zap.Int("rows", len(result.Rows)),
		zap.Int("warnings", len(result.Warnings)),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// project evaluates the select list for every record into rec.out and
// returns the output column names. Missing and Null values project as
// NullMarker. "*" expands to the unqualified columns of the rows, sorted.
func project(recs []*record, selectList []SelectItem, ev *Evaluator) []string {
	var columns []string
	seen := make(map[string]bool)
	addColumn := func(name string) {
		if !seen[name] {
			seen[name] = true
			columns = append(columns, name)
		}
	}

	var star []string
	for _, item := range selectList {
		if col, ok := item.Expr.(*ColumnRef); ok && col.Name == "*" {
			star = starColumns(recs)
			break
		}
	}

	for _, item := range selectList {
		if col, ok := item.Expr.(*ColumnRef); ok && col.Name == "*" {
			for _, name := range star {
				addColumn(name)
			}
			continue
		}
		addColumn(item.OutputName())
	}

	for _, rec := range recs {
		out := make(map[string]interface{}, len(columns))
		for _, item := range selectList {
			if col, ok := item.Expr.(*ColumnRef); ok && col.Name == "*" {
				for _, name := range star {
					out[name] = nullMarked(rec.row[name])
				}
				continue
			}
			out[item.OutputName()] = nullMarked(ev.Value(item.Expr, rec.row, rec.vars))
		}
		rec.out = out
	}

	return columns
}

func nullMarked(v interface{}) interface{} {
	if v == nil {
		return NullMarker
	}
	return v
}

// starColumns returns the union of unqualified column names, sorted.
func starColumns(recs []*record) []string {
	seen := make(map[string]bool)
	var names []string
	for _, rec := range recs {
		for k := range rec.row {
			if !strings.Contains(k, ".") && !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)
	return names
}

// applyHints rewrites the result for the WITH (...) hints. OUTPUTJSON ends
// hint processing, so PAGINATE is ignored for JSON output.
func (e *Engine) applyHints(result *Result, hints HintSet) error {
	if hints.Has(HintHeaderColumnUpperCase) {
		upperColumns(result, cases.Upper(e.locale))
	}

	if hints.Has(HintOutputJSON) {
		data, err := encodeRows(result.Columns, result.Rows)
		if err != nil {
			return err
		}
		result.JSON = data
		return nil
	}

	result.Paginate = hints.Has(HintPaginate)
	return nil
}

// upperColumns uppercases every output name. Uppercasing is idempotent,
// so applying it again changes nothing.
func upperColumns(result *Result, caser cases.Caser) {
	names := make(map[string]string, len(result.Columns))
	var columns []string
	seen := make(map[string]bool)
	for _, col := range result.Columns {
		upper := caser.String(col)
		names[col] = upper
		if !seen[upper] {
			seen[upper] = true
			columns = append(columns, upper)
		}
	}
	result.Columns = columns

	for i, row := range result.Rows {
		upperRow := make(map[string]interface{}, len(row))
		for k, v := range row {
			name, ok := names[k]
			if !ok {
				name = caser.String(k)
			}
			upperRow[name] = v
		}
		result.Rows[i] = upperRow
	}
}

// encodeRows serializes rows as a JSON array of objects whose keys follow
// columns. Values JSON cannot represent (NaN, infinities) encode as null.
func encodeRows(columns []string, rows []map[string]interface{}) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, col := range columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(col)
			if err != nil {
				return "", err
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
	}
	buf.WriteByte(']')
	return buf.String(), nil
}
